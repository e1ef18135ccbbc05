package teachers

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

type stubTeachersRepo struct {
	created *Profile
	deleted []string
}

func (s *stubTeachersRepo) Create(_ context.Context, profile Profile) (Profile, error) {
	profile.ID = "teach-1"
	profile.SystemCode = "EV-MC-GALLE-TEA-000001"
	s.created = &profile
	return profile, nil
}

func (s *stubTeachersRepo) List(context.Context) ([]Profile, error)        { return nil, nil }
func (s *stubTeachersRepo) Get(context.Context, string) (Profile, error)   { return Profile{}, nil }
func (s *stubTeachersRepo) GetByUser(context.Context, string) (Profile, error) {
	return Profile{}, nil
}
func (s *stubTeachersRepo) Update(_ context.Context, _ string, _ UpdateParams) (Profile, error) {
	return Profile{}, nil
}
func (s *stubTeachersRepo) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubAuditor struct{ entries []audit.Entry }

func (s *stubAuditor) Log(_ context.Context, entry audit.Entry) {
	s.entries = append(s.entries, entry)
}

func tenantCtx() context.Context {
	return secctx.With(context.Background(), secctx.Context{
		TenantID: "t-1", Role: secctx.RoleSchoolAdmin, UserID: "u-1",
	})
}

func TestCreateRequiresTenantScope(t *testing.T) {
	svc := NewService(&stubTeachersRepo{}, &stubAuditor{}, slog.Default())

	ctx := secctx.With(context.Background(), secctx.Context{
		Role: secctx.RoleSuperAdmin, UserID: "u-1",
	})
	_, err := svc.Create(ctx, Profile{FullName: "A B Perera", NIC: "791234567V"})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateRecordsAudit(t *testing.T) {
	repo := &stubTeachersRepo{}
	auditor := &stubAuditor{}
	svc := NewService(repo, auditor, slog.Default())

	created, err := svc.Create(tenantCtx(), Profile{FullName: "A B Perera", NIC: "791234567V"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.SystemCode)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "TEACHER_CREATED", auditor.entries[0].Action)
	assert.Equal(t, "teach-1", auditor.entries[0].Details["teacherId"])
}

func TestDeleteRecordsAudit(t *testing.T) {
	repo := &stubTeachersRepo{}
	auditor := &stubAuditor{}
	svc := NewService(repo, auditor, slog.Default())

	require.NoError(t, svc.Delete(tenantCtx(), "teach-1"))
	assert.Equal(t, []string{"teach-1"}, repo.deleted)
	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "TEACHER_DELETED", auditor.entries[0].Action)
}
