package allocations

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
	"github.com/campusgate/campusgate/internal/teachers"
	_ "github.com/campusgate/campusgate/testing"
)

type stubAllocRepo struct {
	assigned  *AssignParams
	scheduled string
}

func (s *stubAllocRepo) Assign(_ context.Context, params AssignParams) (Allocation, error) {
	s.assigned = &params
	return Allocation{ID: "a-1"}, nil
}

func (s *stubAllocRepo) Schedule(_ context.Context, teacherID string) ([]ScheduleEntry, error) {
	s.scheduled = teacherID
	return nil, nil
}

type stubProfiles struct {
	profile teachers.Profile
	err     error
}

func (s stubProfiles) GetByUser(context.Context, string) (teachers.Profile, error) {
	return s.profile, s.err
}

func roleCtx(role secctx.Role) context.Context {
	return secctx.With(context.Background(), secctx.Context{
		TenantID: "t-1", Role: role, UserID: "u-1",
	})
}

func TestAssignBlocksTeachers(t *testing.T) {
	svc := NewService(&stubAllocRepo{}, stubProfiles{}, slog.Default())

	_, err := svc.Assign(roleCtx(secctx.RoleTeacher), AssignParams{})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.Assign(roleCtx(secctx.RoleSchoolAdmin), AssignParams{})
	require.NoError(t, err)
}

func TestScheduleTeacherSelfOnly(t *testing.T) {
	repo := &stubAllocRepo{}
	svc := NewService(repo, stubProfiles{profile: teachers.Profile{ID: "teach-1"}}, slog.Default())

	_, err := svc.Schedule(roleCtx(secctx.RoleTeacher), "teach-1")
	require.NoError(t, err)
	assert.Equal(t, "teach-1", repo.scheduled)

	_, err = svc.Schedule(roleCtx(secctx.RoleTeacher), "teach-2")
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestScheduleTeacherWithoutProfile(t *testing.T) {
	svc := NewService(&stubAllocRepo{}, stubProfiles{err: httpx.ErrNotFound}, slog.Default())

	_, err := svc.Schedule(roleCtx(secctx.RoleTeacher), "teach-1")
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestScheduleAdminReadsAnyTeacher(t *testing.T) {
	repo := &stubAllocRepo{}
	svc := NewService(repo, stubProfiles{}, slog.Default())

	_, err := svc.Schedule(roleCtx(secctx.RoleSchoolAdmin), "teach-9")
	require.NoError(t, err)
	assert.Equal(t, "teach-9", repo.scheduled)
}
