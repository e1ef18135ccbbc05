package tenants

import (
	"context"

	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// RepositoryPort defines data access methods for tenants.
type RepositoryPort interface {
	Create(ctx context.Context, in CreateInput) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Get(ctx context.Context, id string) (Tenant, error)
	Update(ctx context.Context, id string, in UpdateInput) (Tenant, error)
}

// Auditor records tenant administration events.
type Auditor interface {
	Log(ctx context.Context, entry audit.Entry)
}

// Service handles tenant administration. Route-level RBAC restricts these
// operations to SUPER_ADMIN.
type Service struct {
	repo  RepositoryPort
	audit Auditor
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, auditor Auditor) *Service {
	return &Service{repo: repo, audit: auditor}
}

// Create registers a school.
func (s *Service) Create(ctx context.Context, in CreateInput, ip, userAgent string) (Tenant, error) {
	tenant, err := s.repo.Create(ctx, in)
	if err != nil {
		return Tenant{}, err
	}
	s.log(ctx, "TENANT_CREATED", tenant.ID, ip, userAgent, map[string]any{
		"name":       tenant.Name,
		"schoolCode": tenant.SchoolCode,
	})
	return tenant, nil
}

// List returns all schools.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}

// Get fetches one school and records the access.
func (s *Service) Get(ctx context.Context, id, ip, userAgent string) (Tenant, error) {
	tenant, err := s.repo.Get(ctx, id)
	if err != nil {
		return Tenant{}, err
	}
	s.log(ctx, "TENANT_VIEWED", id, ip, userAgent, nil)
	return tenant, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, ip, userAgent string) (Tenant, error) {
	tenant, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Tenant{}, err
	}
	s.log(ctx, "TENANT_UPDATED", id, ip, userAgent, nil)
	return tenant, nil
}

func (s *Service) log(ctx context.Context, action, tenantID, ip, userAgent string, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, audit.Entry{
		Action:    action,
		TenantID:  tenantID,
		UserID:    secctx.From(ctx).UserID,
		IP:        ip,
		UserAgent: userAgent,
		Details:   details,
	})
}
