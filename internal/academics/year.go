// Package academics resolves shared academic reference data: the active
// academic year and classroom metadata used by enrollment, timetable and
// attendance.
package academics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/campusgate/campusgate/internal/platform/cache"
	"github.com/campusgate/campusgate/internal/platform/db"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

// Year is an academic year row.
type Year struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Classroom is the slice of classroom metadata the other modules need.
type Classroom struct {
	ID        string `json:"id"`
	GradeID   string `json:"gradeId"`
	ClassCode string `json:"classCode"`
	ClassName string `json:"className"`
}

// Service reads academic reference data, caching the active year per tenant
// for a short window since it changes once a year but is read on every
// attendance call.
type Service struct {
	gateway *db.RLS
	redis   *redis.Client
	ttl     time.Duration
}

// NewService constructs the academics service. redis may be nil; lookups
// then skip the cache.
func NewService(gateway *db.RLS, redisClient *redis.Client) *Service {
	return &Service{gateway: gateway, redis: redisClient, ttl: 10 * time.Minute}
}

// ActiveYear returns the tenant's active academic year.
func (s *Service) ActiveYear(ctx context.Context) (Year, error) {
	tenantID := secctx.From(ctx).TenantID

	if s.redis != nil {
		key := cache.TenantKey(tenantID, "active-year")
		if raw, err := s.redis.Get(ctx, key).Result(); err == nil {
			var year Year
			if err := json.Unmarshal([]byte(raw), &year); err == nil && year.ID != "" {
				return year, nil
			}
		}
	}

	var year Year
	err := s.gateway.Query(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`SELECT id, label FROM academic_years WHERE active = TRUE LIMIT 1`).
			Scan(&year.ID, &year.Label)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Year{}, fmt.Errorf("%w: no active academic year", httpx.ErrValidation)
		}
		return Year{}, err
	}

	if s.redis != nil {
		if encoded, err := json.Marshal(year); err == nil {
			key := cache.TenantKey(tenantID, "active-year")
			_ = s.redis.Set(ctx, key, encoded, s.ttl).Err()
		}
	}
	return year, nil
}

// Classroom fetches one classroom.
func (s *Service) Classroom(ctx context.Context, id string) (Classroom, error) {
	var room Classroom
	err := s.gateway.Query(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`SELECT id, grade_id, class_code, class_name FROM classrooms WHERE id = $1`, id).
			Scan(&room.ID, &room.GradeID, &room.ClassCode, &room.ClassName)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Classroom{}, fmt.Errorf("%w: class not found", httpx.ErrNotFound)
		}
		return Classroom{}, err
	}
	return room, nil
}
