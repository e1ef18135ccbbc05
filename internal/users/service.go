package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// RepositoryPort defines data access methods for user management.
type RepositoryPort interface {
	Create(ctx context.Context, p CreateParams) (User, error)
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (User, error)
	Update(ctx context.Context, id string, in UpdateInput) (User, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
}

// Auditor records user management events.
type Auditor interface {
	Log(ctx context.Context, entry audit.Entry)
}

// Service handles account management business rules.
type Service struct {
	repo       RepositoryPort
	audit      Auditor
	bcryptCost int
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, auditor Auditor, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	return &Service{repo: repo, audit: auditor, bcryptCost: bcryptCost}
}

// schoolAdminCreatable are the roles a SCHOOL_ADMIN may hand out.
var schoolAdminCreatable = map[secctx.Role]struct{}{
	secctx.RoleTeacher: {},
	secctx.RoleParent:  {},
	secctx.RoleClerk:   {},
}

// Create applies the management rules and creates the account. PARENT
// accounts created without a password start inactive with a pending invite.
func (s *Service) Create(ctx context.Context, in CreateInput, ip, userAgent string) (User, error) {
	caller := secctx.From(ctx)

	role, err := secctx.ParseRole(in.Role)
	if err != nil {
		return User{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}

	var tenantID string
	switch caller.Role {
	case secctx.RoleSuperAdmin:
		if role == secctx.RoleSuperAdmin {
			tenantID = ""
		} else {
			tenantID = in.TenantID
		}
	case secctx.RoleSchoolAdmin:
		if _, ok := schoolAdminCreatable[role]; !ok {
			return User{}, fmt.Errorf("%w: school admins can only create TEACHER, PARENT or CLERK users", httpx.ErrForbidden)
		}
		if caller.TenantID == "" {
			return User{}, fmt.Errorf("%w: caller is not bound to a tenant", httpx.ErrForbidden)
		}
		tenantID = caller.TenantID
	default:
		return User{}, httpx.ErrForbidden
	}

	invite := role == secctx.RoleParent && in.Password == ""
	if !invite && len(in.Password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", httpx.ErrValidation)
	}

	var hash string
	if !invite {
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
		if err != nil {
			return User{}, fmt.Errorf("users: hash password: %w", err)
		}
		hash = string(hashed)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Email:         in.Email,
		PasswordHash:  hash,
		Role:          role,
		TenantID:      tenantID,
		IsActive:      !invite,
		InvitePending: invite,
	})
	if err != nil {
		return User{}, err
	}

	s.log(ctx, "USER_CREATED", tenantID, ip, userAgent, map[string]any{
		"createdUserId": user.ID,
		"createdRole":   user.Role,
		"createdEmail":  user.Email,
	})
	return user, nil
}

// List returns the accounts visible to the caller.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one account after the manage check.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.assertCanManage(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Update modifies an account after the manage check.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, ip, userAgent string) (User, error) {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.assertCanManage(ctx, target); err != nil {
		return User{}, err
	}
	user, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return User{}, err
	}
	s.log(ctx, "USER_UPDATED", user.TenantID, ip, userAgent, map[string]any{"userId": id})
	return user, nil
}

// ResetPassword replaces the target's password and revokes its sessions.
func (s *Service) ResetPassword(ctx context.Context, id, password, ip, userAgent string) error {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.assertCanManage(ctx, target); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("users: hash password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, id, string(hashed)); err != nil {
		return err
	}
	s.log(ctx, "USER_PASSWORD_RESET", target.TenantID, ip, userAgent, map[string]any{"userId": id})
	return nil
}

// assertCanManage enforces who can manage whom: SUPER_ADMIN manages anyone;
// SCHOOL_ADMIN manages non-admin accounts inside its own tenant, plus
// itself.
func (s *Service) assertCanManage(ctx context.Context, target User) error {
	caller := secctx.From(ctx)

	if caller.Role == secctx.RoleSuperAdmin {
		return nil
	}
	if caller.Role != secctx.RoleSchoolAdmin {
		return httpx.ErrForbidden
	}
	if caller.TenantID == "" {
		return fmt.Errorf("%w: caller is not bound to a tenant", httpx.ErrForbidden)
	}
	if target.TenantID != caller.TenantID {
		return fmt.Errorf("%w: target belongs to another tenant", httpx.ErrForbidden)
	}
	if (target.Role == secctx.RoleSuperAdmin || target.Role == secctx.RoleSchoolAdmin) && target.ID != caller.UserID {
		return fmt.Errorf("%w: cannot manage other admins", httpx.ErrForbidden)
	}
	return nil
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
