package timetable

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/platform/httpx"
	_ "github.com/campusgate/campusgate/testing"
)

type stubTimetableRepo struct {
	slot     *Slot
	override *OverrideParams
}

func (s *stubTimetableRepo) CreateSlot(_ context.Context, slot Slot) (Slot, error) {
	s.slot = &slot
	return slot, nil
}

func (s *stubTimetableRepo) ListSlots(context.Context, SlotFilter) ([]Slot, error) { return nil, nil }
func (s *stubTimetableRepo) UpdateSlot(_ context.Context, _ string, _ SlotUpdate) (Slot, error) {
	return Slot{}, nil
}
func (s *stubTimetableRepo) DeactivateSlot(context.Context, string) error { return nil }
func (s *stubTimetableRepo) TeacherDaily(context.Context, string, string, string) ([]Slot, error) {
	return nil, nil
}
func (s *stubTimetableRepo) ClassWeekly(context.Context, string, string) ([]Slot, error) {
	return nil, nil
}

func (s *stubTimetableRepo) CreateOverride(_ context.Context, params OverrideParams) (Override, error) {
	s.override = &params
	return Override{ID: "o-1", Reason: params.Reason}, nil
}

func (s *stubTimetableRepo) ListOverrides(context.Context, OverrideFilter) ([]Override, error) {
	return nil, nil
}
func (s *stubTimetableRepo) UpdateOverride(_ context.Context, _ string, _ OverrideUpdate) (Override, error) {
	return Override{}, nil
}
func (s *stubTimetableRepo) DeactivateOverride(context.Context, string) error { return nil }

func validSlot() Slot {
	return Slot{
		AcademicYearID: "ay-1",
		DayOfWeek:      "MONDAY",
		PeriodNumber:   1,
		StartTime:      "07:30",
		EndTime:        "08:10",
		ClassID:        "c-1",
		SubjectID:      "sub-1",
		TeacherID:      "teach-1",
	}
}

func TestCreateSlotRejectsInvertedTimes(t *testing.T) {
	svc := NewService(&stubTimetableRepo{}, slog.Default())

	tests := []struct {
		name       string
		start, end string
	}{
		{"end before start", "08:10", "07:30"},
		{"zero length", "07:30", "07:30"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			slot := validSlot()
			slot.StartTime = tc.start
			slot.EndTime = tc.end
			_, err := svc.CreateSlot(context.Background(), slot)
			require.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
}

func TestCreateSlotPassesThrough(t *testing.T) {
	repo := &stubTimetableRepo{}
	svc := NewService(repo, slog.Default())

	_, err := svc.CreateSlot(context.Background(), validSlot())
	require.NoError(t, err)
	require.NotNil(t, repo.slot)
	assert.Equal(t, "MONDAY", repo.slot.DayOfWeek)
}

func TestCreateOverrideDefaultsReason(t *testing.T) {
	repo := &stubTimetableRepo{}
	svc := NewService(repo, slog.Default())

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	override, err := svc.CreateOverride(context.Background(), OverrideParams{
		SlotID:   "slot-1",
		DateFrom: from,
		DateTo:   from,
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonSubstitution, override.Reason)
}

func TestCreateOverrideValidation(t *testing.T) {
	svc := NewService(&stubTimetableRepo{}, slog.Default())
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	_, err := svc.CreateOverride(context.Background(), OverrideParams{
		SlotID: "slot-1", DateFrom: from.AddDate(0, 0, 3), DateTo: from,
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateOverride(context.Background(), OverrideParams{
		SlotID: "slot-1", DateFrom: from, DateTo: from, Reason: "VACATION",
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateOverrideRejectsUnknownReason(t *testing.T) {
	svc := NewService(&stubTimetableRepo{}, slog.Default())

	_, err := svc.UpdateOverride(context.Background(), "o-1", OverrideUpdate{Reason: "WHATEVER"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
