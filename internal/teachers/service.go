package teachers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

type RepositoryPort interface {
	Create(ctx context.Context, profile Profile) (Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Get(ctx context.Context, id string) (Profile, error)
	GetByUser(ctx context.Context, userID string) (Profile, error)
	Update(ctx context.Context, id string, params UpdateParams) (Profile, error)
	Delete(ctx context.Context, id string) error
}

type Auditor interface {
	Log(ctx context.Context, entry audit.Entry)
}

type Service struct {
	repo    RepositoryPort
	auditor Auditor
	logger  *slog.Logger
}

func NewService(repo RepositoryPort, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, auditor: auditor, logger: logger}
}

func (s *Service) Create(ctx context.Context, profile Profile) (Profile, error) {
	sc := secctx.From(ctx)
	// Teacher profiles always belong to a school. A SUPER_ADMIN acting
	// without a tenant scope has nowhere to attach the profile.
	if sc.TenantID == "" {
		return Profile{}, fmt.Errorf("%w: tenant context missing", httpx.ErrForbidden)
	}

	created, err := s.repo.Create(ctx, profile)
	if err != nil {
		return Profile{}, err
	}
	s.auditor.Log(ctx, audit.Entry{
		Action:   "TEACHER_CREATED",
		TenantID: sc.TenantID,
		UserID:   sc.UserID,
		Details:  map[string]any{"teacherId": created.ID, "systemCode": created.SystemCode},
	})
	return created, nil
}

func (s *Service) List(ctx context.Context) ([]Profile, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByUser(ctx context.Context, userID string) (Profile, error) {
	return s.repo.GetByUser(ctx, userID)
}

func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (Profile, error) {
	return s.repo.Update(ctx, id, params)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	sc := secctx.From(ctx)
	s.auditor.Log(ctx, audit.Entry{
		Action:   "TEACHER_DELETED",
		TenantID: sc.TenantID,
		UserID:   sc.UserID,
		Details:  map[string]any{"teacherId": id},
	})
	return nil
}
