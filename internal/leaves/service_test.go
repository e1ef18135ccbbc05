package leaves

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

type stubLeavesRepo struct {
	created  *Leave
	decided  []string
	listWith *Filter
}

func (s *stubLeavesRepo) Create(_ context.Context, dateFrom, dateTo time.Time, reasonCode, note string) (Leave, error) {
	leave := Leave{ID: "l-1", DateFrom: dateFrom, DateTo: dateTo, ReasonCode: reasonCode, Note: note, Status: StatusPending}
	s.created = &leave
	return leave, nil
}

func (s *stubLeavesRepo) List(_ context.Context, filter Filter) ([]Leave, error) {
	s.listWith = &filter
	return nil, nil
}

func (s *stubLeavesRepo) ListMine(context.Context, *time.Time, *time.Time) ([]Leave, error) {
	return nil, nil
}

func (s *stubLeavesRepo) Decide(_ context.Context, leaveID, status, _ string) (Leave, error) {
	s.decided = append(s.decided, leaveID+":"+status)
	return Leave{ID: leaveID, TeacherID: "teach-1", Status: status}, nil
}

func (s *stubLeavesRepo) Cancel(_ context.Context, leaveID string) (Leave, error) {
	return Leave{ID: leaveID, Status: StatusCancelled}, nil
}

type stubAuditor struct{ entries []audit.Entry }

func (s *stubAuditor) Log(_ context.Context, entry audit.Entry) {
	s.entries = append(s.entries, entry)
}

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func TestCreateRejectsInvertedRange(t *testing.T) {
	svc := NewService(&stubLeavesRepo{}, &stubAuditor{}, slog.Default())

	_, err := svc.Create(context.Background(), day("2026-09-10"), day("2026-09-08"), "SICK", "")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateSingleDayLeave(t *testing.T) {
	repo := &stubLeavesRepo{}
	svc := NewService(repo, &stubAuditor{}, slog.Default())

	leave, err := svc.Create(context.Background(), day("2026-09-10"), day("2026-09-10"), "SICK", "fever")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, leave.Status)
	require.NotNil(t, repo.created)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := NewService(&stubLeavesRepo{}, &stubAuditor{}, slog.Default())

	_, err := svc.List(context.Background(), Filter{Status: "MAYBE"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestApproveRecordsAudit(t *testing.T) {
	repo := &stubLeavesRepo{}
	auditor := &stubAuditor{}
	svc := NewService(repo, auditor, slog.Default())

	ctx := secctx.With(context.Background(), secctx.Context{
		TenantID: "t-1", Role: secctx.RolePrincipal, UserID: "u-9",
	})

	leave, err := svc.Approve(ctx, "l-1", "ok")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, leave.Status)
	assert.Equal(t, []string{"l-1:" + StatusApproved}, repo.decided)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "LEAVE_APPROVED", auditor.entries[0].Action)
	assert.Equal(t, "u-9", auditor.entries[0].UserID)
	assert.Equal(t, "teach-1", auditor.entries[0].Details["teacherId"])
}

func TestRejectRecordsAudit(t *testing.T) {
	auditor := &stubAuditor{}
	svc := NewService(&stubLeavesRepo{}, auditor, slog.Default())

	leave, err := svc.Reject(context.Background(), "l-2", "clashes with exams")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, leave.Status)
	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "LEAVE_REJECTED", auditor.entries[0].Action)
}
