package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// Verifier is the token check the authenticator middleware depends on.
type Verifier interface {
	VerifyAccess(token string) (Principal, error)
}

// Authenticator gates every non-public route. It extracts the bearer token,
// verifies signature and expiry, and hydrates the request's security
// context. IsSystem is always false on this path so a reused scope can
// never inherit elevated privilege. Public routes are simply mounted
// outside this middleware.
func Authenticator(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.RespondError(w, r, logger, httpx.ErrUnauthorized)
				return
			}

			principal, err := verifier.VerifyAccess(token)
			if err != nil {
				if logger != nil {
					logger.Debug("token rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				httpx.RespondError(w, r, logger, httpx.ErrUnauthorized)
				return
			}

			ctx := secctx.With(r.Context(), secctx.Context{
				TenantID: principal.TenantID,
				Role:     principal.Role,
				UserID:   principal.UserID,
				IsSystem: false,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles allows only the listed roles through. An empty list means
// authentication alone suffices. It must be mounted after Authenticator.
func RequireRoles(roles ...secctx.Role) func(http.Handler) http.Handler {
	allowed := make(map[secctx.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			sc := secctx.From(r.Context())
			if sc.UserID == "" {
				httpx.RespondError(w, r, nil, httpx.ErrUnauthorized)
				return
			}
			if !sc.Role.Valid() || sc.Role == secctx.RoleAnonymous {
				httpx.RespondError(w, r, nil, fmt.Errorf("%w: caller role missing", httpx.ErrForbidden))
				return
			}
			if _, ok := allowed[sc.Role]; !ok {
				httpx.RespondError(w, r, nil, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
