package enrollment

import (
	"context"
	"log/slog"

	"github.com/campusgate/campusgate/internal/academics"
	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

type RepositoryPort interface {
	BulkEnroll(ctx context.Context, classID, academicYearID, yearLabel string, studentIDs []string) (BulkResult, error)
	ClassRoster(ctx context.Context, classID, academicYearID, yearLabel string) (Roster, error)
}

// YearResolver supplies the active academic year.
type YearResolver interface {
	ActiveYear(ctx context.Context) (academics.Year, error)
}

type Auditor interface {
	Log(ctx context.Context, entry audit.Entry)
}

type Service struct {
	repo    RepositoryPort
	years   YearResolver
	auditor Auditor
	logger  *slog.Logger
}

func NewService(repo RepositoryPort, years YearResolver, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, years: years, auditor: auditor, logger: logger}
}

// BulkEnroll enrolls the students into the class for the active year.
func (s *Service) BulkEnroll(ctx context.Context, classID string, studentIDs []string) (BulkResult, error) {
	year, err := s.years.ActiveYear(ctx)
	if err != nil {
		return BulkResult{}, err
	}
	result, err := s.repo.BulkEnroll(ctx, classID, year.ID, year.Label, studentIDs)
	if err != nil {
		return BulkResult{}, err
	}

	sc := secctx.From(ctx)
	s.auditor.Log(ctx, audit.Entry{
		Action:   "STUDENTS_ENROLLED",
		TenantID: sc.TenantID,
		UserID:   sc.UserID,
		Details: map[string]any{
			"classId":  classID,
			"enrolled": result.Enrolled,
			"year":     year.Label,
		},
	})
	if len(result.Warnings) > 0 {
		s.logger.Warn("enrollment capacity warning",
			"class_id", classID, "warnings", result.Warnings)
	}
	return result, nil
}

func (s *Service) ClassRoster(ctx context.Context, classID string) (Roster, error) {
	year, err := s.years.ActiveYear(ctx)
	if err != nil {
		return Roster{}, err
	}
	return s.repo.ClassRoster(ctx, classID, year.ID, year.Label)
}
