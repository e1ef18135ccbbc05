package students

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	_ "github.com/campusgate/campusgate/testing"
)

type stubRepo struct {
	admitted *AdmitParams
	result   AdmissionResult
}

func (s *stubRepo) Admit(_ context.Context, params AdmitParams) (AdmissionResult, error) {
	s.admitted = &params
	return s.result, nil
}

func (s *stubRepo) List(context.Context, ListFilter) ([]Student, error) { return nil, nil }
func (s *stubRepo) Get(context.Context, string) (Detail, error)        { return Detail{}, nil }
func (s *stubRepo) Update(context.Context, string, UpdateParams) (Student, error) {
	return Student{}, nil
}
func (s *stubRepo) Remove(context.Context, string) error { return nil }

type stubAuditor struct{ entries []audit.Entry }

func (s *stubAuditor) Log(_ context.Context, entry audit.Entry) {
	s.entries = append(s.entries, entry)
}

func validInput() AdmitInput {
	return AdmitInput{
		AdmissionNumber: "ADM-2026-001",
		FullName:        "kumara   perera",
		DateOfBirth:     time.Date(2015, 3, 9, 0, 0, 0, 0, time.UTC),
		Gender:          "MALE",
		Addresses: []Address{
			{AddressType: "PERMANENT", Line1: "12 Lake Rd", City: "Kandy"},
		},
		Parent: Parent{FullName: "saman perera", NIC: "791234567V", Phone: "0771234567"},
	}
}

func newTestService(repo RepositoryPort, auditor Auditor) *Service {
	return NewService(repo, auditor, slog.Default())
}

func TestAdmitNormalizesNames(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, &stubAuditor{})

	_, err := svc.Admit(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, repo.admitted)
	assert.Equal(t, "Kumara Perera", repo.admitted.Student.FullName)
	assert.Equal(t, "Saman Perera", repo.admitted.Parent.FullName)
	assert.Equal(t, "GUARDIAN", repo.admitted.Parent.Relation)
	assert.False(t, repo.admitted.Student.AdmissionDate.IsZero())
}

func TestAdmitAddressRules(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubAuditor{})

	tests := []struct {
		name      string
		addresses []Address
	}{
		{"no permanent", []Address{{AddressType: "CURRENT", Line1: "a", City: "b"}}},
		{"two permanent", []Address{
			{AddressType: "PERMANENT", Line1: "a", City: "b"},
			{AddressType: "PERMANENT", Line1: "c", City: "d"},
		}},
		{"two current", []Address{
			{AddressType: "PERMANENT", Line1: "a", City: "b"},
			{AddressType: "CURRENT", Line1: "c", City: "d"},
			{AddressType: "CURRENT", Line1: "e", City: "f"},
		}},
		{"unknown type", []Address{{AddressType: "POSTAL", Line1: "a", City: "b"}}},
		{"missing city", []Address{{AddressType: "PERMANENT", Line1: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.Addresses = tt.addresses
			_, err := svc.Admit(context.Background(), in)
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
}

func TestAdmitInviteRequiresEmail(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubAuditor{})

	in := validInput()
	in.InviteParent = true
	_, err := svc.Admit(context.Background(), in)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	in.Parent.Email = "saman@example.com"
	_, err = svc.Admit(context.Background(), in)
	assert.NoError(t, err)
}

func TestAdmitRecordsAudit(t *testing.T) {
	auditor := &stubAuditor{}
	repo := &stubRepo{result: AdmissionResult{Student: Student{ID: "s1", AdmissionNumber: "ADM-2026-001"}}}
	svc := newTestService(repo, auditor)

	_, err := svc.Admit(context.Background(), validInput())
	require.NoError(t, err)
	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "STUDENT_ADMITTED", auditor.entries[0].Action)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubAuditor{})
	_, err := svc.Update(context.Background(), "s1", UpdateParams{Status: "PAUSED"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
