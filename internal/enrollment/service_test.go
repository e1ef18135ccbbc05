package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/academics"
	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

type stubEnrollRepo struct {
	result   BulkResult
	err      error
	yearSeen string
	students []string
}

func (s *stubEnrollRepo) BulkEnroll(_ context.Context, _, academicYearID, _ string, studentIDs []string) (BulkResult, error) {
	s.yearSeen = academicYearID
	s.students = studentIDs
	return s.result, s.err
}

func (s *stubEnrollRepo) ClassRoster(_ context.Context, classID, _, yearLabel string) (Roster, error) {
	return Roster{ClassID: classID, AcademicYear: yearLabel}, nil
}

type stubAuditor struct{ entries []audit.Entry }

func (s *stubAuditor) Log(_ context.Context, entry audit.Entry) {
	s.entries = append(s.entries, entry)
}

type stubYears struct{}

func (stubYears) ActiveYear(context.Context) (academics.Year, error) {
	return academics.Year{ID: "ay-1", Label: "2026"}, nil
}

func adminCtx() context.Context {
	return secctx.With(context.Background(), secctx.Context{
		TenantID: "t-1", Role: secctx.RoleSchoolAdmin, UserID: "u-2",
	})
}

func TestBulkEnrollUsesActiveYear(t *testing.T) {
	repo := &stubEnrollRepo{result: BulkResult{Enrolled: 3}}
	auditor := &stubAuditor{}
	svc := NewService(repo, stubYears{}, auditor, slog.Default())

	result, err := svc.BulkEnroll(adminCtx(), "c-1", []string{"s1", "s2", "s3"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Enrolled)
	assert.Equal(t, "ay-1", repo.yearSeen)
	assert.Len(t, repo.students, 3)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "STUDENTS_ENROLLED", auditor.entries[0].Action)
	assert.Equal(t, 3, auditor.entries[0].Details["enrolled"])
	assert.Equal(t, "2026", auditor.entries[0].Details["year"])
}

func TestBulkEnrollPropagatesConflict(t *testing.T) {
	repo := &stubEnrollRepo{err: fmt.Errorf("%w: 2 student(s) already enrolled in academic year 2026", httpx.ErrValidation)}
	auditor := &stubAuditor{}
	svc := NewService(repo, stubYears{}, auditor, slog.Default())

	_, err := svc.BulkEnroll(adminCtx(), "c-1", []string{"s1", "s2"})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Empty(t, auditor.entries)
}

func TestBulkEnrollReturnsCapacityWarnings(t *testing.T) {
	repo := &stubEnrollRepo{result: BulkResult{
		Enrolled: 10,
		Warnings: []string{"class 6-A exceeds capacity: 48 of 45"},
	}}
	svc := NewService(repo, stubYears{}, &stubAuditor{}, slog.Default())

	result, err := svc.BulkEnroll(adminCtx(), "c-1", []string{"s1"})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
}

func TestClassRosterCarriesYearLabel(t *testing.T) {
	svc := NewService(&stubEnrollRepo{}, stubYears{}, &stubAuditor{}, slog.Default())

	roster, err := svc.ClassRoster(adminCtx(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "2026", roster.AcademicYear)
	assert.Equal(t, "c-1", roster.ClassID)
}
