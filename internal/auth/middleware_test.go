package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

type stubVerifier struct {
	principal Principal
	err       error
}

func (s stubVerifier) VerifyAccess(string) (Principal, error) {
	return s.principal, s.err
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	handler := Authenticator(stubVerifier{}, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/students", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthenticatorRejectsBadToken(t *testing.T) {
	handler := Authenticator(stubVerifier{err: errors.New("expired")}, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorHydratesContext(t *testing.T) {
	verifier := stubVerifier{principal: Principal{
		UserID:   "u-1",
		TenantID: "t-1",
		Role:     secctx.RoleTeacher,
	}}

	var seen secctx.Context
	handler := Authenticator(verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = secctx.From(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t-1", seen.TenantID)
	assert.Equal(t, "u-1", seen.UserID)
	assert.Equal(t, secctx.RoleTeacher, seen.Role)
	assert.False(t, seen.IsSystem)
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name    string
		ctx     secctx.Context
		allowed []secctx.Role
		want    int
	}{
		{
			name:    "role allowed",
			ctx:     secctx.Context{TenantID: "t-1", Role: secctx.RoleSchoolAdmin, UserID: "u-1"},
			allowed: []secctx.Role{secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin},
			want:    http.StatusOK,
		},
		{
			name:    "role denied",
			ctx:     secctx.Context{TenantID: "t-1", Role: secctx.RoleTeacher, UserID: "u-1"},
			allowed: []secctx.Role{secctx.RoleSuperAdmin, secctx.RoleSchoolAdmin},
			want:    http.StatusForbidden,
		},
		{
			name:    "unauthenticated",
			ctx:     secctx.Context{},
			allowed: []secctx.Role{secctx.RoleTeacher},
			want:    http.StatusUnauthorized,
		},
		{
			name:    "empty list passes any authenticated caller",
			ctx:     secctx.Context{TenantID: "t-1", Role: secctx.RoleClerk, UserID: "u-1"},
			allowed: nil,
			want:    http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireRoles(tc.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/students", nil)
			if tc.ctx.UserID != "" {
				req = req.WithContext(secctx.With(req.Context(), tc.ctx))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
