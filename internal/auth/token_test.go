package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/internal/platform/secctx"
	_ "github.com/campusgate/campusgate/testing"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := testIssuer()
	in := Principal{UserID: "u-1", TenantID: "t-1", Role: secctx.RoleSchoolAdmin}

	token, err := issuer.MintAccess(in)
	require.NoError(t, err)

	out, err := issuer.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRefreshTokenCannotPassAsAccess(t *testing.T) {
	issuer := testIssuer()
	token, err := issuer.MintRefresh(Principal{UserID: "u-1", Role: secctx.RoleTeacher})
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(token)
	assert.Error(t, err)
}

func TestAccessTokenExpires(t *testing.T) {
	issuer := testIssuer()
	token, err := issuer.MintAccess(Principal{UserID: "u-1", Role: secctx.RoleTeacher})
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	_, err = issuer.VerifyAccess(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := testIssuer()
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.VerifyAccess(token)
		assert.Error(t, err, token)
	}
}

func TestSuperAdminTokenHasNoTenant(t *testing.T) {
	issuer := testIssuer()
	token, err := issuer.MintAccess(Principal{UserID: "u-1", Role: secctx.RoleSuperAdmin})
	require.NoError(t, err)

	out, err := issuer.VerifyAccess(token)
	require.NoError(t, err)
	assert.Empty(t, out.TenantID)
	assert.Equal(t, secctx.RoleSuperAdmin, out.Role)
}
