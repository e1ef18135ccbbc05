package subjects

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

type RepositoryPort interface {
	Create(ctx context.Context, subject Subject) (Subject, error)
	List(ctx context.Context, grade int32) ([]Subject, error)
	Get(ctx context.Context, id string) (Subject, error)
	Update(ctx context.Context, id string, params UpdateParams) (Subject, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, subject Subject) (Subject, error) {
	sc := secctx.From(ctx)
	if sc.TenantID == "" {
		return Subject{}, fmt.Errorf("%w: tenant context missing", httpx.ErrForbidden)
	}
	// Route middleware already keeps teachers out of writes. Re-checked
	// here so a future route cannot silently widen the surface.
	if sc.EffectiveRole() == secctx.RoleTeacher {
		return Subject{}, httpx.ErrForbidden
	}
	return s.repo.Create(ctx, subject)
}

func (s *Service) List(ctx context.Context, grade int32) ([]Subject, error) {
	return s.repo.List(ctx, grade)
}

func (s *Service) Get(ctx context.Context, id string) (Subject, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (Subject, error) {
	if secctx.From(ctx).EffectiveRole() == secctx.RoleTeacher {
		return Subject{}, httpx.ErrForbidden
	}
	return s.repo.Update(ctx, id, params)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if secctx.From(ctx).EffectiveRole() == secctx.RoleTeacher {
		return httpx.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
