package students

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// RepositoryPort abstracts persistence for the service layer.
type RepositoryPort interface {
	Admit(ctx context.Context, params AdmitParams) (AdmissionResult, error)
	List(ctx context.Context, filter ListFilter) ([]Student, error)
	Get(ctx context.Context, id string) (Detail, error)
	Update(ctx context.Context, id string, params UpdateParams) (Student, error)
	Remove(ctx context.Context, id string) error
}

// Auditor records admission activity.
type Auditor interface {
	Log(ctx context.Context, entry audit.Entry)
}

// Service enforces the admission rules before handing the write to the
// repository.
type Service struct {
	repo      RepositoryPort
	auditor   Auditor
	logger    *slog.Logger
	inviteTTL time.Duration
	titler    cases.Caser
}

func NewService(repo RepositoryPort, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		auditor:   auditor,
		logger:    logger,
		inviteTTL: 24 * time.Hour,
		titler:    cases.Title(language.Und),
	}
}

// AdmitInput is the admission request after transport decoding.
type AdmitInput struct {
	AdmissionNumber string
	IndexNumber     string
	FullName        string
	Initials        string
	DateOfBirth     time.Time
	Gender          string
	Medium          string
	Religion        string
	AdmissionDate   time.Time
	Addresses       []Address
	Parent          Parent
	InviteParent    bool
}

// Admit validates and runs the admission transaction.
func (s *Service) Admit(ctx context.Context, in AdmitInput) (AdmissionResult, error) {
	if err := validateAddresses(in.Addresses); err != nil {
		return AdmissionResult{}, err
	}
	if in.Parent.NIC == "" || in.Parent.FullName == "" || in.Parent.Phone == "" {
		return AdmissionResult{}, fmt.Errorf("%w: guardian name, NIC and phone are required", httpx.ErrValidation)
	}
	if in.InviteParent && in.Parent.Email == "" {
		return AdmissionResult{}, fmt.Errorf("%w: guardian email required to send a login invite", httpx.ErrValidation)
	}
	if in.AdmissionDate.IsZero() {
		in.AdmissionDate = time.Now()
	}

	in.FullName = s.normalizeName(in.FullName)
	in.Parent.FullName = s.normalizeName(in.Parent.FullName)
	if in.Parent.Relation == "" {
		in.Parent.Relation = "GUARDIAN"
	}

	result, err := s.repo.Admit(ctx, AdmitParams{
		Student: Student{
			AdmissionNumber: strings.TrimSpace(in.AdmissionNumber),
			IndexNumber:     strings.TrimSpace(in.IndexNumber),
			FullName:        in.FullName,
			Initials:        strings.TrimSpace(in.Initials),
			DateOfBirth:     in.DateOfBirth,
			Gender:          in.Gender,
			Medium:          in.Medium,
			Religion:        in.Religion,
			AdmissionDate:   in.AdmissionDate,
		},
		Addresses:    in.Addresses,
		Parent:       in.Parent,
		InviteParent: in.InviteParent,
		InviteTTL:    s.inviteTTL,
	})
	if err != nil {
		return AdmissionResult{}, err
	}

	sc := secctx.From(ctx)
	s.auditor.Log(ctx, audit.Entry{
		Action:   "STUDENT_ADMITTED",
		TenantID: sc.TenantID,
		UserID:   sc.UserID,
		Details: map[string]any{
			"studentId":       result.Student.ID,
			"admissionNumber": result.Student.AdmissionNumber,
			"parentReused":    result.ParentReused,
			"inviteCreated":   result.InviteCreated,
		},
	})
	s.logger.Info("student admitted",
		"student_id", result.Student.ID,
		"parent_reused", result.ParentReused,
		"invite_created", result.InviteCreated)
	return result, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Student, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (Student, error) {
	if params.FullName != "" {
		params.FullName = s.normalizeName(params.FullName)
	}
	if params.Status != "" && params.Status != StatusActive && params.Status != StatusInactive {
		return Student{}, fmt.Errorf("%w: status must be ACTIVE or INACTIVE", httpx.ErrValidation)
	}
	return s.repo.Update(ctx, id, params)
}

func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.repo.Remove(ctx, id); err != nil {
		return err
	}
	sc := secctx.From(ctx)
	s.auditor.Log(ctx, audit.Entry{
		Action:   "STUDENT_REMOVED",
		TenantID: sc.TenantID,
		UserID:   sc.UserID,
		Details:  map[string]any{"studentId": id},
	})
	return nil
}

// validateAddresses requires exactly one PERMANENT address and allows at
// most one CURRENT.
func validateAddresses(addrs []Address) error {
	var permanent, current int
	for _, a := range addrs {
		switch a.AddressType {
		case addressPermanent:
			permanent++
		case addressCurrent:
			current++
		default:
			return fmt.Errorf("%w: address type must be PERMANENT or CURRENT", httpx.ErrValidation)
		}
		if a.Line1 == "" || a.City == "" {
			return fmt.Errorf("%w: address line1 and city are required", httpx.ErrValidation)
		}
	}
	if permanent != 1 {
		return fmt.Errorf("%w: exactly one PERMANENT address is required", httpx.ErrValidation)
	}
	if current > 1 {
		return fmt.Errorf("%w: at most one CURRENT address is allowed", httpx.ErrValidation)
	}
	return nil
}

// normalizeName collapses internal whitespace and title-cases the result.
func (s *Service) normalizeName(name string) string {
	return s.titler.String(strings.Join(strings.Fields(name), " "))
}
