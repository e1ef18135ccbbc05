package auth

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgate/campusgate/internal/audit"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// RepositoryPort defines the data access the auth service needs.
type RepositoryPort interface {
	FindActiveByEmail(ctx context.Context, email string) (*User, error)
	CreateRefreshToken(ctx context.Context, id, userID, tokenHash string, expiresAt time.Time) error
	ListRefreshTokens(ctx context.Context, userID string) ([]RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, id string) error
	DeleteUserRefreshTokens(ctx context.Context, userID string) error
	Activate(ctx context.Context, inviteToken, passwordHash string) error
}

// Auditor records security events without ever failing the caller.
type Auditor interface {
	Log(ctx context.Context, entry Entry)
}

// Entry aliases the audit entry type so stubs stay local in tests.
type Entry = audit.Entry

// Service wraps credential verification and token lifecycle rules.
type Service struct {
	repo       RepositoryPort
	issuer     *TokenIssuer
	audit      Auditor
	bcryptCost int
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, issuer *TokenIssuer, auditor Auditor, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	return &Service{repo: repo, issuer: issuer, audit: auditor, bcryptCost: bcryptCost}
}

// LoginResult is what a successful login returns to the caller.
type LoginResult struct {
	TokenPair
	User struct {
		ID       string      `json:"id"`
		Email    string      `json:"email"`
		Role     secctx.Role `json:"role"`
		TenantID string      `json:"tenantId,omitempty"`
	} `json:"user"`
}

// Login validates email/password credentials and issues a token pair. The
// user lookup runs in a system scope: the tenant is unknown until after the
// password check, so the lookup cannot be tenant-filtered. No security
// state from this scope is visible outside the call.
func (s *Service) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	sysCtx := secctx.System(ctx)

	user, err := s.repo.FindActiveByEmail(sysCtx, email)
	if err != nil || user == nil {
		s.auditLogin(ctx, "LOGIN_FAILED", "", "", ip, userAgent, map[string]any{"email": email})
		return nil, fmt.Errorf("%w: invalid email or password", httpx.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.auditLogin(ctx, "LOGIN_FAILED", user.TenantID, user.ID, ip, userAgent, nil)
		return nil, fmt.Errorf("%w: invalid email or password", httpx.ErrUnauthorized)
	}

	principal := Principal{UserID: user.ID, TenantID: user.TenantID, Role: user.Role}
	pair, err := s.issueTokens(sysCtx, principal)
	if err != nil {
		return nil, err
	}

	s.auditLogin(ctx, "LOGIN_SUCCESS", user.TenantID, user.ID, ip, userAgent, nil)

	result := &LoginResult{TokenPair: *pair}
	result.User.ID = user.ID
	result.User.Email = user.Email
	result.User.Role = user.Role
	result.User.TenantID = user.TenantID
	return result, nil
}

// Refresh rotates a refresh token: verify the presented token, match it
// against the stored hashes, discard the matched record, issue a new pair.
// The flow is public at the route level, so identity comes from the
// verified token payload via the explicit-context activator.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token missing", httpx.ErrUnauthorized)
	}
	principal, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", httpx.ErrUnauthorized)
	}

	scoped := secctx.WithPrincipal(ctx, principal.TenantID, principal.Role, principal.UserID)

	stored, err := s.repo.ListRefreshTokens(scoped, principal.UserID)
	if err != nil {
		return nil, err
	}
	digest := refreshDigest(refreshToken)
	matched := ""
	for _, record := range stored {
		if bcrypt.CompareHashAndPassword([]byte(record.TokenHash), digest) == nil {
			matched = record.ID
			break
		}
	}
	if matched == "" {
		return nil, fmt.Errorf("%w: refresh token not found or already used", httpx.ErrUnauthorized)
	}
	if err := s.repo.DeleteRefreshToken(scoped, matched); err != nil {
		return nil, err
	}

	return s.issueTokens(scoped, principal)
}

// Logout invalidates all refresh tokens for the token's subject. An
// unverifiable token still logs out cleanly; there is nothing to revoke
// and nothing to leak.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("%w: refresh token missing", httpx.ErrUnauthorized)
	}
	principal, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil
	}

	scoped := secctx.WithPrincipal(ctx, principal.TenantID, principal.Role, principal.UserID)
	if err := s.repo.DeleteUserRefreshTokens(scoped, principal.UserID); err != nil {
		return err
	}
	s.auditLogin(ctx, "LOGOUT", principal.TenantID, principal.UserID, "", "", nil)
	return nil
}

// Activate consumes an invite token and sets the account's first password.
func (s *Service) Activate(ctx context.Context, inviteToken, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.repo.Activate(secctx.System(ctx), inviteToken, string(hash)); err != nil {
		return fmt.Errorf("%w: invite token invalid or expired", httpx.ErrUnauthorized)
	}
	return nil
}

func (s *Service) issueTokens(ctx context.Context, principal Principal) (*TokenPair, error) {
	access, err := s.issuer.MintAccess(principal)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.MintRefresh(principal)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword(refreshDigest(refresh), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash refresh token: %w", err)
	}
	expiresAt := s.issuer.now().Add(s.issuer.RefreshTTL())
	if err := s.repo.CreateRefreshToken(ctx, uuid.NewString(), principal.UserID, string(hash), expiresAt); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// refreshDigest condenses a refresh token below bcrypt's 72-byte input
// limit; the bcrypt hash of the digest is what gets stored.
func refreshDigest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

func (s *Service) auditLogin(ctx context.Context, action, tenantID, userID, ip, userAgent string, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, Entry{
		Action:    action,
		TenantID:  tenantID,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Details:   details,
	})
}
