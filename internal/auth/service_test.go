package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

type stubAuthRepo struct {
	user    *User
	tokens  []RefreshToken
	created []RefreshToken
	deleted []string
	purged  []string

	activateErr error
	activated   string
}

func (s *stubAuthRepo) FindActiveByEmail(_ context.Context, email string) (*User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, errors.New("no rows")
	}
	return s.user, nil
}

func (s *stubAuthRepo) CreateRefreshToken(_ context.Context, id, userID, tokenHash string, expiresAt time.Time) error {
	s.created = append(s.created, RefreshToken{ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt})
	return nil
}

func (s *stubAuthRepo) ListRefreshTokens(context.Context, string) ([]RefreshToken, error) {
	return s.tokens, nil
}

func (s *stubAuthRepo) DeleteRefreshToken(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubAuthRepo) DeleteUserRefreshTokens(_ context.Context, userID string) error {
	s.purged = append(s.purged, userID)
	return nil
}

func (s *stubAuthRepo) Activate(_ context.Context, inviteToken, _ string) error {
	if s.activateErr != nil {
		return s.activateErr
	}
	s.activated = inviteToken
	return nil
}

type recordingAuditor struct{ entries []Entry }

func (r *recordingAuditor) Log(_ context.Context, entry Entry) {
	r.entries = append(r.entries, entry)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func activeUser(t *testing.T) *User {
	return &User{
		ID:           "u-1",
		TenantID:     "t-1",
		Email:        "office@school.lk",
		PasswordHash: hashPassword(t, "secret-password"),
		Role:         secctx.RoleSchoolAdmin,
		IsActive:     true,
	}
}

func newAuthService(repo *stubAuthRepo, auditor Auditor) *Service {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	return NewService(repo, issuer, auditor, bcrypt.MinCost)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t)}
	auditor := &recordingAuditor{}
	svc := newAuthService(repo, auditor)

	result, err := svc.Login(context.Background(), "office@school.lk", "secret-password", "10.0.0.1", "ua")
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "u-1", result.User.ID)
	assert.Equal(t, secctx.RoleSchoolAdmin, result.User.Role)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "u-1", repo.created[0].UserID)
	// stored hash is never the raw token
	assert.NotEqual(t, result.RefreshToken, repo.created[0].TokenHash)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "LOGIN_SUCCESS", auditor.entries[0].Action)
}

func TestRefreshTokenExpiryFollowsIssuerClock(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t)}
	issuer := NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	frozen := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return frozen }
	svc := NewService(repo, issuer, &recordingAuditor{}, bcrypt.MinCost)

	_, err := svc.Login(context.Background(), "office@school.lk", "secret-password", "10.0.0.1", "ua")
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.True(t, repo.created[0].ExpiresAt.Equal(frozen.Add(time.Hour)))
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t)}
	auditor := &recordingAuditor{}
	svc := newAuthService(repo, auditor)

	_, err := svc.Login(context.Background(), "office@school.lk", "wrong", "10.0.0.1", "ua")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "LOGIN_FAILED", auditor.entries[0].Action)
	assert.Empty(t, repo.created)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc := newAuthService(&stubAuthRepo{}, &recordingAuditor{})

	_, err := svc.Login(context.Background(), "nobody@school.lk", "secret-password", "", "")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t)}
	svc := newAuthService(repo, &recordingAuditor{})

	result, err := svc.Login(context.Background(), "office@school.lk", "secret-password", "", "")
	require.NoError(t, err)

	// make the stored hash visible to the refresh flow
	repo.tokens = repo.created

	pair, err := svc.Refresh(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, result.RefreshToken, pair.RefreshToken)

	// the matched record is discarded so the token cannot be replayed
	require.Len(t, repo.deleted, 1)
	assert.Equal(t, repo.tokens[0].ID, repo.deleted[0])
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t)}
	svc := newAuthService(repo, &recordingAuditor{})

	result, err := svc.Login(context.Background(), "office@school.lk", "secret-password", "", "")
	require.NoError(t, err)

	// store is empty: the presented token was already rotated away
	_, err = svc.Refresh(context.Background(), result.RefreshToken)
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t)}
	svc := newAuthService(repo, &recordingAuditor{})

	result, err := svc.Login(context.Background(), "office@school.lk", "secret-password", "", "")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), result.AccessToken)
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestLogoutPurgesAllTokens(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t)}
	svc := newAuthService(repo, &recordingAuditor{})

	result, err := svc.Login(context.Background(), "office@school.lk", "secret-password", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), result.RefreshToken))
	assert.Equal(t, []string{"u-1"}, repo.purged)
}

func TestLogoutWithGarbageTokenIsClean(t *testing.T) {
	repo := &stubAuthRepo{}
	svc := newAuthService(repo, &recordingAuditor{})

	require.NoError(t, svc.Logout(context.Background(), "not-a-token"))
	assert.Empty(t, repo.purged)
}

func TestActivate(t *testing.T) {
	repo := &stubAuthRepo{}
	svc := newAuthService(repo, &recordingAuditor{})

	require.NoError(t, svc.Activate(context.Background(), "invite-token", "long-enough-pw"))
	assert.Equal(t, "invite-token", repo.activated)
}

func TestActivateShortPassword(t *testing.T) {
	svc := newAuthService(&stubAuthRepo{}, &recordingAuditor{})

	err := svc.Activate(context.Background(), "invite-token", "short")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestActivateBadToken(t *testing.T) {
	repo := &stubAuthRepo{activateErr: errors.New("no rows")}
	svc := newAuthService(repo, &recordingAuditor{})

	err := svc.Activate(context.Background(), "stale", "long-enough-pw")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}
