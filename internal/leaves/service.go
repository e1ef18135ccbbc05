package leaves

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

type RepositoryPort interface {
	Create(ctx context.Context, dateFrom, dateTo time.Time, reasonCode, note string) (Leave, error)
	List(ctx context.Context, filter Filter) ([]Leave, error)
	ListMine(ctx context.Context, from, to *time.Time) ([]Leave, error)
	Decide(ctx context.Context, leaveID, status, decisionNote string) (Leave, error)
	Cancel(ctx context.Context, leaveID string) (Leave, error)
}

type Auditor interface {
	Log(ctx context.Context, entry audit.Entry)
}

type Service struct {
	repo    RepositoryPort
	auditor Auditor
	logger  *slog.Logger
}

func NewService(repo RepositoryPort, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, auditor: auditor, logger: logger}
}

func (s *Service) Create(ctx context.Context, dateFrom, dateTo time.Time, reasonCode, note string) (Leave, error) {
	if dateFrom.After(dateTo) {
		return Leave{}, fmt.Errorf("%w: dateFrom must be on or before dateTo", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, dateFrom, dateTo, reasonCode, note)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Leave, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown leave status", httpx.ErrValidation)
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) ListMine(ctx context.Context, from, to *time.Time) ([]Leave, error) {
	return s.repo.ListMine(ctx, from, to)
}

func (s *Service) Approve(ctx context.Context, leaveID, decisionNote string) (Leave, error) {
	return s.decide(ctx, leaveID, StatusApproved, decisionNote, "LEAVE_APPROVED")
}

func (s *Service) Reject(ctx context.Context, leaveID, decisionNote string) (Leave, error) {
	return s.decide(ctx, leaveID, StatusRejected, decisionNote, "LEAVE_REJECTED")
}

func (s *Service) decide(ctx context.Context, leaveID, status, decisionNote, action string) (Leave, error) {
	leave, err := s.repo.Decide(ctx, leaveID, status, decisionNote)
	if err != nil {
		return Leave{}, err
	}
	sc := secctx.From(ctx)
	s.auditor.Log(ctx, audit.Entry{
		Action:   action,
		TenantID: sc.TenantID,
		UserID:   sc.UserID,
		Details:  map[string]any{"leaveId": leaveID, "teacherId": leave.TeacherID},
	})
	return leave, nil
}

func (s *Service) Cancel(ctx context.Context, leaveID string) (Leave, error) {
	return s.repo.Cancel(ctx, leaveID)
}
