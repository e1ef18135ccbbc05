package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// Claims is the signed token payload: subject plus tenant and role.
type Claims struct {
	TenantID string `json:"tenantId,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access and refresh tokens. The two token
// kinds use distinct secrets so a refresh token can never pass as an access
// token or vice versa.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// RefreshTTL exposes the refresh token lifetime for persistence.
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

// MintAccess signs a short-lived access token for p.
func (i *TokenIssuer) MintAccess(p Principal) (string, error) {
	return i.mint(p, i.accessSecret, i.accessTTL)
}

// MintRefresh signs a long-lived refresh token for p.
func (i *TokenIssuer) MintRefresh(p Principal) (string, error) {
	return i.mint(p, i.refreshSecret, i.refreshTTL)
}

func (i *TokenIssuer) mint(p Principal, secret []byte, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		TenantID: p.TenantID,
		Role:     p.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// VerifyAccess validates signature and expiry of an access token and
// decodes the principal.
func (i *TokenIssuer) VerifyAccess(token string) (Principal, error) {
	return i.verify(token, i.accessSecret)
}

// VerifyRefresh validates signature and expiry of a refresh token and
// decodes the principal.
func (i *TokenIssuer) VerifyRefresh(token string) (Principal, error) {
	return i.verify(token, i.refreshSecret)
}

func (i *TokenIssuer) verify(token string, secret []byte) (Principal, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return Principal{}, fmt.Errorf("auth: verify token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Principal{}, fmt.Errorf("auth: token missing subject")
	}
	role, err := secctx.ParseRole(claims.Role)
	if err != nil {
		return Principal{}, fmt.Errorf("auth: token role: %w", err)
	}
	return Principal{
		UserID:   claims.Subject,
		TenantID: claims.TenantID,
		Role:     role,
	}, nil
}
