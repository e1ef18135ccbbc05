// Package audit records security-relevant actions. Writes are best effort:
// a failing audit insert is logged and swallowed so observability problems
// can never break the primary request path.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusgate/campusgate/internal/platform/db"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// Entry describes one audited action.
type Entry struct {
	Action    string
	TenantID  string
	UserID    string
	IP        string
	UserAgent string
	Details   map[string]any
}

// systemActions are written under a system scope because they occur before
// or outside an authenticated request (no tenant context is active yet).
var systemActions = map[string]struct{}{
	"LOGIN_SUCCESS": {},
	"LOGIN_FAILED":  {},
	"LOGOUT":        {},
}

// Service persists audit entries through the row-security gateway.
type Service struct {
	gateway   *db.RLS
	logger    *slog.Logger
	retention time.Duration
}

// NewService constructs the audit service. Entries carry a retention stamp
// one year out.
func NewService(gateway *db.RLS, logger *slog.Logger) *Service {
	return &Service{
		gateway:   gateway,
		logger:    logger,
		retention: 365 * 24 * time.Hour,
	}
}

// Log writes an audit entry. It never returns an error.
func (s *Service) Log(ctx context.Context, entry Entry) {
	if s == nil || s.gateway == nil {
		return
	}

	if _, system := systemActions[entry.Action]; system {
		ctx = secctx.System(ctx)
	}

	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			s.warn(entry.Action, err)
			details = nil
		}
	}

	ip := entry.IP
	if ip == "" {
		ip = "UNKNOWN"
	}
	ua := entry.UserAgent
	if ua == "" {
		ua = "UNKNOWN"
	}

	err := s.gateway.Query(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO audit_log (id, action_code, tenant_id, user_id, ip_address, user_agent, details, retention_until)
			 VALUES ($1, $2, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid, $5, $6, $7, $8)`,
			uuid.NewString(), entry.Action, entry.TenantID, entry.UserID, ip, ua, details,
			time.Now().Add(s.retention))
		return err
	})
	if err != nil {
		s.warn(entry.Action, err)
	}
}

func (s *Service) warn(action string, err error) {
	if s.logger != nil {
		s.logger.Warn("audit write failed", slog.String("action", action), slog.Any("error", err))
	}
}
