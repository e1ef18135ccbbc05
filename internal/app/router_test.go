package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/auth"
	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

type stubVerifier struct {
	calls     int
	principal auth.Principal
	err       error
}

func (s *stubVerifier) VerifyAccess(string) (auth.Principal, error) {
	s.calls++
	return s.principal, s.err
}

type emptyAuthRepo struct{}

func (emptyAuthRepo) FindActiveByEmail(context.Context, string) (*auth.User, error) {
	return nil, errors.New("no active user")
}
func (emptyAuthRepo) CreateRefreshToken(context.Context, string, string, string, time.Time) error {
	return nil
}
func (emptyAuthRepo) ListRefreshTokens(context.Context, string) ([]auth.RefreshToken, error) {
	return nil, nil
}
func (emptyAuthRepo) DeleteRefreshToken(context.Context, string) error      { return nil }
func (emptyAuthRepo) DeleteUserRefreshTokens(context.Context, string) error { return nil }
func (emptyAuthRepo) Activate(context.Context, string, string) error        { return nil }

type noopAuditor struct{}

func (noopAuditor) Log(context.Context, auth.Entry) {}

func newTestRouter(verifier auth.Verifier) http.Handler {
	logger := slog.Default()
	issuer := auth.NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	authSvc := auth.NewService(emptyAuthRepo{}, issuer, noopAuditor{}, 0)
	return NewRouter(RouterParams{
		Logger:        logger,
		TokenVerifier: verifier,
		AuthHandler:   auth.NewHandler(authSvc, validator.New(), logger),
	})
}

func TestHealthzIsPublic(t *testing.T) {
	router := newTestRouter(&stubVerifier{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	verifier := &stubVerifier{}
	router := newTestRouter(verifier)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	// No bearer token means the verifier is never consulted.
	assert.Zero(t, verifier.calls)
}

func TestRoleGateBlocksWrongRole(t *testing.T) {
	verifier := &stubVerifier{principal: auth.Principal{
		UserID: "u-1", TenantID: "t-1", Role: secctx.RoleClerk,
	}}
	router := newTestRouter(verifier)

	req := httptest.NewRequest(http.MethodGet, "/tenants", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, verifier.calls)
}

func TestLoginBypassesVerifier(t *testing.T) {
	verifier := &stubVerifier{}
	router := newTestRouter(verifier)

	body := strings.NewReader(`{"email":"nobody@example.com","password":"wrong-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// The handler ran (and rejected the credentials); the verifier did not.
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, verifier.calls)
	assert.Contains(t, rec.Body.String(), "Unauthorized")
}
