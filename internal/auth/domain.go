package auth

import (
	"time"

	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// User represents an account row as the auth flows see it.
type User struct {
	ID            string
	TenantID      string
	Email         string
	PasswordHash  string
	Role          secctx.Role
	IsActive      bool
	InvitePending bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Principal is the caller identity decoded from a verified token. It is
// used once to hydrate the security context and then discarded.
type Principal struct {
	UserID   string
	TenantID string
	Role     secctx.Role
}

// RefreshToken is a stored, bcrypt-hashed refresh credential.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// InviteToken is a one-shot activation credential for invited accounts.
type InviteToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
