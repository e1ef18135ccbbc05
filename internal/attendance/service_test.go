package attendance

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/academics"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

type stubAttendanceRepo struct {
	gateStatus string
	gateDate   time.Time

	teacherID string
	assigned  bool

	markedBy   string
	markResult MarkResult

	monthly    MonthlySummary
	schoolDays int
}

func (s *stubAttendanceRepo) StudentIDBySystemCode(_ context.Context, systemCode string) (string, error) {
	if systemCode == "missing" {
		return "", httpx.ErrNotFound
	}
	return "stu-1", nil
}

func (s *stubAttendanceRepo) UpsertGate(_ context.Context, _, _ string, date, _ time.Time, status string) error {
	s.gateStatus = status
	s.gateDate = date
	return nil
}

func (s *stubAttendanceRepo) TeacherAssignedToClass(context.Context, string, string, string) (string, bool, error) {
	return s.teacherID, s.assigned, nil
}

func (s *stubAttendanceRepo) MarkPeriod(_ context.Context, _, _ string, _ time.Time, _ int32, markedBy string, _ []PeriodRecord) (MarkResult, error) {
	s.markedBy = markedBy
	return s.markResult, nil
}

func (s *stubAttendanceRepo) ClassRegister(context.Context, string, string, time.Time) (Register, error) {
	return Register{ClassID: "c-1"}, nil
}

func (s *stubAttendanceRepo) DailySummary(context.Context, string, time.Time) (DailySummary, error) {
	return DailySummary{}, nil
}

func (s *stubAttendanceRepo) MonthlySummary(context.Context, string, time.Time, time.Time) (MonthlySummary, int, error) {
	return s.monthly, s.schoolDays, nil
}

type stubYears struct{ year academics.Year }

func (s stubYears) ActiveYear(context.Context) (academics.Year, error) {
	return s.year, nil
}

func newAttendanceService(repo *stubAttendanceRepo) *Service {
	return NewService(repo, stubYears{year: academics.Year{ID: "ay-1", Label: "2026"}}, slog.Default(), "07:15")
}

func teacherCtx() context.Context {
	return secctx.With(context.Background(), secctx.Context{
		TenantID: "t-1", Role: secctx.RoleTeacher, UserID: "u-7",
	})
}

func adminCtx() context.Context {
	return secctx.With(context.Background(), secctx.Context{
		TenantID: "t-1", Role: secctx.RoleSchoolAdmin, UserID: "u-2",
	})
}

func TestGateScanLateCutoff(t *testing.T) {
	tests := []struct {
		name      string
		scannedAt time.Time
		want      string
	}{
		{"before cutoff", time.Date(2026, 9, 1, 6, 55, 0, 0, time.UTC), StatusPresent},
		{"exactly at cutoff", time.Date(2026, 9, 1, 7, 15, 0, 0, time.UTC), StatusPresent},
		{"after cutoff", time.Date(2026, 9, 1, 7, 16, 0, 0, time.UTC), StatusLate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubAttendanceRepo{}
			svc := newAttendanceService(repo)

			result, err := svc.GateScan(adminCtx(), "ST-abc", tc.scannedAt)
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Status)
			assert.Equal(t, tc.want, repo.gateStatus)
			// record date is normalized to midnight
			assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), repo.gateDate)
		})
	}
}

func TestGateScanUnknownStudent(t *testing.T) {
	svc := newAttendanceService(&stubAttendanceRepo{})

	_, err := svc.GateScan(adminCtx(), "missing", time.Now())
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestMarkPeriodRejectsUnknownStatus(t *testing.T) {
	svc := newAttendanceService(&stubAttendanceRepo{})

	_, err := svc.MarkPeriod(adminCtx(), "c-1", time.Now(), 1, []PeriodRecord{
		{StudentID: "stu-1", Status: "SLEEPING"},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestMarkPeriodTeacherChecks(t *testing.T) {
	tests := []struct {
		name      string
		teacherID string
		assigned  bool
		wantErr   string
	}{
		{"no profile", "", false, "teacher profile not found"},
		{"not allocated", "teach-1", false, "not assigned to class"},
		{"allocated", "teach-1", true, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubAttendanceRepo{teacherID: tc.teacherID, assigned: tc.assigned}
			svc := newAttendanceService(repo)

			_, err := svc.MarkPeriod(teacherCtx(), "c-1", time.Now(), 1, []PeriodRecord{
				{StudentID: "stu-1", Status: StatusPresent},
			})
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "teach-1", repo.markedBy)
				return
			}
			require.ErrorIs(t, err, httpx.ErrForbidden)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestMarkPeriodAdminSkipsAllocationCheck(t *testing.T) {
	repo := &stubAttendanceRepo{}
	svc := newAttendanceService(repo)

	_, err := svc.MarkPeriod(adminCtx(), "c-1", time.Now(), 1, []PeriodRecord{
		{StudentID: "stu-1", Status: StatusAbsent},
	})
	require.NoError(t, err)
	assert.Empty(t, repo.markedBy)
}

func TestClassRegisterTeacherMustBeAssigned(t *testing.T) {
	repo := &stubAttendanceRepo{teacherID: "teach-1", assigned: false}
	svc := newAttendanceService(repo)

	_, err := svc.ClassRegister(teacherCtx(), "c-1", time.Now())
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestMonthlySummaryPercentages(t *testing.T) {
	repo := &stubAttendanceRepo{
		schoolDays: 20,
		monthly: MonthlySummary{
			AcademicYearID:  "ay-1",
			TotalSchoolDays: 20,
			Students: []MonthlyRow{
				{StudentID: "stu-1", Present: 18, Late: 1},
				{StudentID: "stu-2", Present: 0, Late: 0},
			},
		},
	}
	svc := newAttendanceService(repo)

	summary, err := svc.MonthlySummary(adminCtx(), "2026-09")
	require.NoError(t, err)
	assert.Equal(t, "2026-09", summary.Month)

	require.Len(t, summary.Students, 2)
	assert.Equal(t, 1, summary.Students[0].Absent)
	assert.InDelta(t, 95.0, summary.Students[0].Percentage, 0.001)
	assert.Equal(t, 20, summary.Students[1].Absent)
	assert.Zero(t, summary.Students[1].Percentage)
}

func TestMonthlySummaryBadMonth(t *testing.T) {
	svc := newAttendanceService(&stubAttendanceRepo{})

	_, err := svc.MonthlySummary(adminCtx(), "September 2026")
	require.ErrorIs(t, err, httpx.ErrValidation)
}
