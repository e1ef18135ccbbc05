// Package cache wraps the Redis client used for hot lookups such as the
// active academic year.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client and verifies connectivity.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// TenantKey namespaces a cache key by tenant so cached values can never be
// served across tenants.
func TenantKey(tenantID, key string) string {
	if tenantID == "" {
		tenantID = "none"
	}
	return "tenant:" + tenantID + ":" + key
}
