package users

import (
	"time"

	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// User represents a managed account. The password hash never leaves the
// repository layer.
type User struct {
	ID            string      `json:"id"`
	TenantID      string      `json:"tenantId,omitempty"`
	Email         string      `json:"email"`
	Role          secctx.Role `json:"role"`
	IsActive      bool        `json:"isActive"`
	InvitePending bool        `json:"invitePending"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// CreateInput carries fields for creating an account. Password may be empty
// for PARENT accounts, which are created inactive with a pending invite
// token that the scheduled mailer delivers.
type CreateInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Role     string `json:"role" validate:"required"`
	TenantID string `json:"tenantId"`
}

// UpdateInput carries optional account updates.
type UpdateInput struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	IsActive *bool   `json:"isActive"`
}

// ResetPasswordInput carries the new password.
type ResetPasswordInput struct {
	Password string `json:"password" validate:"required,min=8"`
}
