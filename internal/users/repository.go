package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/campusgate/campusgate/internal/platform/db"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// Repository provides PostgreSQL backed persistence for user accounts.
type Repository struct {
	gateway *db.RLS
}

// NewRepository constructs a repository.
func NewRepository(gateway *db.RLS) *Repository {
	return &Repository{gateway: gateway}
}

const userColumns = `id, COALESCE(tenant_id::text, ''), email, role, is_active, invite_pending, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &role, &u.IsActive, &u.InvitePending, &u.CreatedAt, &u.UpdatedAt)
	u.Role = secctx.Role(role)
	return u, err
}

// CreateParams is the resolved insert payload after the service applied the
// management rules.
type CreateParams struct {
	Email         string
	PasswordHash  string
	Role          secctx.Role
	TenantID      string
	IsActive      bool
	InvitePending bool
}

// Create inserts an account; when InvitePending is set it also issues an
// invite token in the same transaction.
func (r *Repository) Create(ctx context.Context, p CreateParams) (User, error) {
	var user User
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO users (id, tenant_id, email, password_hash, role, is_active, invite_pending)
			 VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7)
			 RETURNING `+userColumns,
			uuid.NewString(), p.TenantID, p.Email, p.PasswordHash, p.Role.String(), p.IsActive, p.InvitePending)
		u, err := scanUser(row)
		if err != nil {
			return err
		}
		user = u
		if !p.InvitePending {
			return nil
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO invite_tokens (id, user_id, token, expires_at) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), user.ID, uuid.NewString(), time.Now().Add(7*24*time.Hour))
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, httpx.ErrDuplicate
		}
		return User{}, err
	}
	return user, nil
}

// List returns all accounts visible to the caller's row-security scope.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	var out []User
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one account by ID.
func (r *Repository) Get(ctx context.Context, id string) (User, error) {
	var user User
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, httpx.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// Update applies the non-nil fields of in.
func (r *Repository) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	var user User
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE users SET
			    email      = COALESCE($2, email),
			    is_active  = COALESCE($3, is_active),
			    updated_at = now()
			 WHERE id = $1
			 RETURNING `+userColumns, id, in.Email, in.IsActive)
		u, err := scanUser(row)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, httpx.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, httpx.ErrDuplicate
		}
		return User{}, err
	}
	return user, nil
}

// SetPasswordHash replaces the stored hash and revokes outstanding refresh
// tokens in one transaction, so a reset invalidates stolen sessions.
func (r *Repository) SetPasswordHash(ctx context.Context, id, hash string) error {
	return r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		_, err = tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, id)
		return err
	})
}
