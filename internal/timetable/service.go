package timetable

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusgate/campusgate/internal/platform/httpx"
)

type RepositoryPort interface {
	CreateSlot(ctx context.Context, slot Slot) (Slot, error)
	ListSlots(ctx context.Context, filter SlotFilter) ([]Slot, error)
	UpdateSlot(ctx context.Context, id string, update SlotUpdate) (Slot, error)
	DeactivateSlot(ctx context.Context, id string) error
	TeacherDaily(ctx context.Context, teacherID, dayOfWeek, academicYearID string) ([]Slot, error)
	ClassWeekly(ctx context.Context, classID, academicYearID string) ([]Slot, error)

	CreateOverride(ctx context.Context, params OverrideParams) (Override, error)
	ListOverrides(ctx context.Context, filter OverrideFilter) ([]Override, error)
	UpdateOverride(ctx context.Context, id string, update OverrideUpdate) (Override, error)
	DeactivateOverride(ctx context.Context, id string) error
}

type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreateSlot(ctx context.Context, slot Slot) (Slot, error) {
	if slot.StartTime >= slot.EndTime {
		return Slot{}, fmt.Errorf("%w: startTime must be before endTime", httpx.ErrValidation)
	}
	return s.repo.CreateSlot(ctx, slot)
}

func (s *Service) ListSlots(ctx context.Context, filter SlotFilter) ([]Slot, error) {
	return s.repo.ListSlots(ctx, filter)
}

func (s *Service) UpdateSlot(ctx context.Context, id string, update SlotUpdate) (Slot, error) {
	return s.repo.UpdateSlot(ctx, id, update)
}

func (s *Service) DeactivateSlot(ctx context.Context, id string) error {
	return s.repo.DeactivateSlot(ctx, id)
}

func (s *Service) TeacherDaily(ctx context.Context, teacherID, dayOfWeek, academicYearID string) ([]Slot, error) {
	return s.repo.TeacherDaily(ctx, teacherID, dayOfWeek, academicYearID)
}

func (s *Service) ClassWeekly(ctx context.Context, classID, academicYearID string) ([]Slot, error) {
	return s.repo.ClassWeekly(ctx, classID, academicYearID)
}

func (s *Service) CreateOverride(ctx context.Context, params OverrideParams) (Override, error) {
	if params.DateFrom.After(params.DateTo) {
		return Override{}, fmt.Errorf("%w: dateFrom must be on or before dateTo", httpx.ErrValidation)
	}
	if params.Reason == "" {
		params.Reason = ReasonSubstitution
	}
	if !validReason(params.Reason) {
		return Override{}, fmt.Errorf("%w: unknown override reason", httpx.ErrValidation)
	}
	return s.repo.CreateOverride(ctx, params)
}

func (s *Service) ListOverrides(ctx context.Context, filter OverrideFilter) ([]Override, error) {
	return s.repo.ListOverrides(ctx, filter)
}

func (s *Service) UpdateOverride(ctx context.Context, id string, update OverrideUpdate) (Override, error) {
	if update.Reason != "" && !validReason(update.Reason) {
		return Override{}, fmt.Errorf("%w: unknown override reason", httpx.ErrValidation)
	}
	return s.repo.UpdateOverride(ctx, id, update)
}

func (s *Service) DeactivateOverride(ctx context.Context, id string) error {
	return s.repo.DeactivateOverride(ctx, id)
}
