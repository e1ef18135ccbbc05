package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/campusgate/campusgate/internal/platform/db"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// Repository provides PostgreSQL backed persistence for auth flows. All
// access goes through the row-security gateway.
type Repository struct {
	gateway *db.RLS
}

// NewRepository constructs a repository.
func NewRepository(gateway *db.RLS) *Repository {
	return &Repository{gateway: gateway}
}

const userColumns = `id, COALESCE(tenant_id::text, ''), email, password_hash, role, is_active, invite_pending, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &role, &u.IsActive, &u.InvitePending, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = secctx.Role(role)
	return &u, nil
}

// FindActiveByEmail looks up an active account by email. Callers must run
// this inside a system scope: at login time the tenant is unknown until
// after the password check, so the lookup itself cannot be tenant-filtered.
func (r *Repository) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	var user *User
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1 AND is_active = TRUE`, email)
		u, err := scanUser(row)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateRefreshToken stores a hashed refresh token.
func (r *Repository) CreateRefreshToken(ctx context.Context, id, userID, tokenHash string, expiresAt time.Time) error {
	return r.gateway.Query(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES ($1, $2, $3, $4)`,
			id, userID, tokenHash, expiresAt)
		return err
	})
}

// ListRefreshTokens returns the unexpired stored tokens for a user.
func (r *Repository) ListRefreshTokens(ctx context.Context, userID string) ([]RefreshToken, error) {
	var tokens []RefreshToken
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT id, user_id, token_hash, expires_at, created_at
			 FROM refresh_tokens WHERE user_id = $1 AND expires_at > now()`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var t RefreshToken
			if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt); err != nil {
				return err
			}
			tokens = append(tokens, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteRefreshToken removes a single stored token (rotation).
func (r *Repository) DeleteRefreshToken(ctx context.Context, id string) error {
	return r.gateway.Query(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
		return err
	})
}

// DeleteUserRefreshTokens removes every stored token for a user (logout).
func (r *Repository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	return r.gateway.Query(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
		return err
	})
}

// Activate consumes an invite token and activates the account in one
// transaction: validate the token, set the password, flip the flags, mark
// the token used.
func (r *Repository) Activate(ctx context.Context, inviteToken, passwordHash string) error {
	return r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var tokenID, userID string
		err := tx.QueryRow(ctx,
			`SELECT id, user_id FROM invite_tokens
			 WHERE token = $1 AND used_at IS NULL AND expires_at > now()`, inviteToken).
			Scan(&tokenID, &userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return httpx.ErrNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET password_hash = $1, is_active = TRUE, invite_pending = FALSE, updated_at = now()
			 WHERE id = $2`, passwordHash, userID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE invite_tokens SET used_at = now() WHERE id = $1`, tokenID)
		return err
	})
}

// PendingInvite pairs an invited account with its newest live invite token.
type PendingInvite struct {
	UserID string
	Email  string
	Token  string
}

// ListPendingInvites returns up to limit accounts still waiting for their
// invite mail, each with its most recent unused, unexpired token. Used by
// the scheduled invite job under a system scope.
func (r *Repository) ListPendingInvites(ctx context.Context, limit int) ([]PendingInvite, error) {
	var invites []PendingInvite
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT DISTINCT ON (u.id) u.id, u.email, t.token
			 FROM users u
			 JOIN invite_tokens t ON t.user_id = u.id
			 WHERE u.invite_pending = TRUE AND t.used_at IS NULL AND t.expires_at > now()
			 ORDER BY u.id, t.created_at DESC
			 LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var inv PendingInvite
			if err := rows.Scan(&inv.UserID, &inv.Email, &inv.Token); err != nil {
				return err
			}
			invites = append(invites, inv)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return invites, nil
}

// MarkInviteSent records that the invite mail went out.
func (r *Repository) MarkInviteSent(ctx context.Context, userID string) error {
	return r.gateway.Query(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE users SET invite_pending = FALSE, invite_sent_at = now(), updated_at = now() WHERE id = $1`,
			userID)
		return err
	})
}
