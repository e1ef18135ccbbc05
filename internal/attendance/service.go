package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/campusgate/campusgate/internal/academics"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

type RepositoryPort interface {
	StudentIDBySystemCode(ctx context.Context, systemCode string) (string, error)
	UpsertGate(ctx context.Context, studentID, academicYearID string, date, arrival time.Time, status string) error
	TeacherAssignedToClass(ctx context.Context, userID, classID, academicYearID string) (string, bool, error)
	MarkPeriod(ctx context.Context, classID, academicYearID string, date time.Time, period int32, markedByTeacherID string, records []PeriodRecord) (MarkResult, error)
	ClassRegister(ctx context.Context, classID, academicYearID string, date time.Time) (Register, error)
	DailySummary(ctx context.Context, academicYearID string, date time.Time) (DailySummary, error)
	MonthlySummary(ctx context.Context, academicYearID string, monthStart, monthEnd time.Time) (MonthlySummary, int, error)
}

type YearResolver interface {
	ActiveYear(ctx context.Context) (academics.Year, error)
}

// Service applies the attendance rules. lateCutoff is a local "HH:MM"
// wall-clock time; scans after it count as LATE.
type Service struct {
	repo       RepositoryPort
	years      YearResolver
	logger     *slog.Logger
	lateCutoff string
}

func NewService(repo RepositoryPort, years YearResolver, logger *slog.Logger, lateCutoff string) *Service {
	if lateCutoff == "" {
		lateCutoff = "07:15"
	}
	return &Service{repo: repo, years: years, logger: logger, lateCutoff: lateCutoff}
}

// GateScan records a student's arrival at the gate.
func (s *Service) GateScan(ctx context.Context, systemCode string, scannedAt time.Time) (GateResult, error) {
	studentID, err := s.repo.StudentIDBySystemCode(ctx, systemCode)
	if err != nil {
		return GateResult{}, err
	}
	year, err := s.years.ActiveYear(ctx)
	if err != nil {
		return GateResult{}, err
	}

	date := dateOnly(scannedAt)
	cutoff, err := time.Parse("15:04", s.lateCutoff)
	if err != nil {
		return GateResult{}, fmt.Errorf("bad late cutoff %q: %w", s.lateCutoff, err)
	}
	cutoffAt := time.Date(date.Year(), date.Month(), date.Day(),
		cutoff.Hour(), cutoff.Minute(), 0, 0, scannedAt.Location())

	status := StatusPresent
	if scannedAt.After(cutoffAt) {
		status = StatusLate
	}

	if err := s.repo.UpsertGate(ctx, studentID, year.ID, date, scannedAt, status); err != nil {
		return GateResult{}, err
	}
	return GateResult{Status: status}, nil
}

// MarkPeriod records period attendance. A TEACHER caller must hold an
// allocation in the class; admins may mark any class.
func (s *Service) MarkPeriod(ctx context.Context, classID string, date time.Time, period int32, records []PeriodRecord) (MarkResult, error) {
	for _, record := range records {
		switch record.Status {
		case StatusPresent, StatusLate, StatusAbsent:
		default:
			return MarkResult{}, fmt.Errorf("%w: unknown attendance status %q",
				httpx.ErrValidation, record.Status)
		}
	}

	year, err := s.years.ActiveYear(ctx)
	if err != nil {
		return MarkResult{}, err
	}

	sc := secctx.From(ctx)
	var markedBy string
	if sc.EffectiveRole() == secctx.RoleTeacher {
		teacherID, assigned, err := s.repo.TeacherAssignedToClass(ctx, sc.UserID, classID, year.ID)
		if err != nil {
			return MarkResult{}, err
		}
		if teacherID == "" {
			return MarkResult{}, fmt.Errorf("%w: teacher profile not found", httpx.ErrForbidden)
		}
		if !assigned {
			return MarkResult{}, fmt.Errorf("%w: not assigned to class", httpx.ErrForbidden)
		}
		markedBy = teacherID
	}

	result, err := s.repo.MarkPeriod(ctx, classID, year.ID, dateOnly(date), period, markedBy, records)
	if err != nil {
		return MarkResult{}, err
	}
	if result.Skipped > 0 {
		s.logger.Info("period marks skipped for students without gate presence",
			"class_id", classID, "skipped", result.Skipped)
	}
	return result, nil
}

// ClassRegister returns the register for one class and date. TEACHER
// callers are limited to classes they are allocated to.
func (s *Service) ClassRegister(ctx context.Context, classID string, date time.Time) (Register, error) {
	year, err := s.years.ActiveYear(ctx)
	if err != nil {
		return Register{}, err
	}

	sc := secctx.From(ctx)
	if sc.EffectiveRole() == secctx.RoleTeacher {
		teacherID, assigned, err := s.repo.TeacherAssignedToClass(ctx, sc.UserID, classID, year.ID)
		if err != nil {
			return Register{}, err
		}
		if teacherID == "" || !assigned {
			return Register{}, fmt.Errorf("%w: not assigned to class", httpx.ErrForbidden)
		}
	}

	return s.repo.ClassRegister(ctx, classID, year.ID, dateOnly(date))
}

func (s *Service) DailySummary(ctx context.Context, date time.Time) (DailySummary, error) {
	year, err := s.years.ActiveYear(ctx)
	if err != nil {
		return DailySummary{}, err
	}
	return s.repo.DailySummary(ctx, year.ID, dateOnly(date))
}

// MonthlySummary aggregates gate attendance for a "YYYY-MM" month.
func (s *Service) MonthlySummary(ctx context.Context, month string) (MonthlySummary, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("%w: invalid month format (YYYY-MM)", httpx.ErrValidation)
	}
	end := start.AddDate(0, 1, 0)

	year, err := s.years.ActiveYear(ctx)
	if err != nil {
		return MonthlySummary{}, err
	}

	summary, schoolDays, err := s.repo.MonthlySummary(ctx, year.ID, start, end)
	if err != nil {
		return MonthlySummary{}, err
	}
	summary.Month = month
	for i := range summary.Students {
		row := &summary.Students[i]
		attended := row.Present + row.Late
		row.Absent = schoolDays - attended
		if row.Absent < 0 {
			row.Absent = 0
		}
		if schoolDays > 0 {
			row.Percentage = math.Round(float64(attended)/float64(schoolDays)*10000) / 100
		}
	}
	return summary, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
