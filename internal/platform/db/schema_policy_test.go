package db

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/campusgate/campusgate/testing"
)

// The gateway pins session variables on every transaction, using '' when the
// security context is empty. The row-security policies must treat that empty
// pin like an absent one: a bare ''::uuid cast would abort the query with a
// cast error instead of filtering to zero rows.
func TestSchemaPoliciesTolerateEmptyPins(t *testing.T) {
	schema, err := os.ReadFile("../../../scripts/schema.sql")
	require.NoError(t, err)

	bareCast := regexp.MustCompile(`current_setting\('app\.(tenant_id|user_id)', true\)::uuid`)
	assert.Empty(t, bareCast.FindAllString(string(schema), -1),
		"uuid casts of session settings must go through NULLIF(..., '')")

	guarded := regexp.MustCompile(`NULLIF\(current_setting\('app\.(tenant_id|user_id)', true\), ''\)::uuid`)
	assert.NotEmpty(t, guarded.FindAllString(string(schema), -1))
}

// Policies may only name roles the gateway actually pins. System scopes are
// collapsed to SUPER_ADMIN before pinning, so a SYSTEM arm would be dead.
func TestSchemaPoliciesUsePinnedRolesOnly(t *testing.T) {
	schema, err := os.ReadFile("../../../scripts/schema.sql")
	require.NoError(t, err)

	assert.NotRegexp(t, `'SYSTEM'`, string(schema))
}
