package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantKey(t *testing.T) {
	assert.Equal(t, "tenant:t-1:active-year", TenantKey("t-1", "active-year"))
	assert.Equal(t, "tenant:none:active-year", TenantKey("", "active-year"))

	// two tenants never share a key for the same logical value
	assert.NotEqual(t, TenantKey("t-1", "active-year"), TenantKey("t-2", "active-year"))
}
