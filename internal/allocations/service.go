package allocations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
	"github.com/campusgate/campusgate/internal/teachers"
)

type RepositoryPort interface {
	Assign(ctx context.Context, params AssignParams) (Allocation, error)
	Schedule(ctx context.Context, teacherID string) ([]ScheduleEntry, error)
}

// ProfileResolver maps a login user to their teacher profile.
type ProfileResolver interface {
	GetByUser(ctx context.Context, userID string) (teachers.Profile, error)
}

type Service struct {
	repo     RepositoryPort
	profiles ProfileResolver
	logger   *slog.Logger
}

func NewService(repo RepositoryPort, profiles ProfileResolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, logger: logger}
}

func (s *Service) Assign(ctx context.Context, params AssignParams) (Allocation, error) {
	if secctx.From(ctx).EffectiveRole() == secctx.RoleTeacher {
		return Allocation{}, httpx.ErrForbidden
	}
	return s.repo.Assign(ctx, params)
}

// Schedule returns a teacher's allocations. A caller with the TEACHER role
// may only read their own schedule.
func (s *Service) Schedule(ctx context.Context, teacherID string) ([]ScheduleEntry, error) {
	sc := secctx.From(ctx)
	if sc.EffectiveRole() == secctx.RoleTeacher {
		profile, err := s.profiles.GetByUser(ctx, sc.UserID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return nil, fmt.Errorf("%w: no teacher profile linked to caller", httpx.ErrForbidden)
			}
			return nil, err
		}
		if profile.ID != teacherID {
			return nil, httpx.ErrForbidden
		}
	}
	return s.repo.Schedule(ctx, teacherID)
}
