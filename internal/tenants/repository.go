package tenants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/campusgate/campusgate/internal/platform/db"
	"github.com/campusgate/campusgate/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for tenants.
type Repository struct {
	gateway *db.RLS
}

// NewRepository constructs a repository.
func NewRepository(gateway *db.RLS) *Repository {
	return &Repository{gateway: gateway}
}

const tenantColumns = `id, name, school_code, school_type,
	COALESCE(province, ''), district, zone, division, mediums,
	COALESCE(address_line1, ''), COALESCE(address_line2, ''), COALESCE(city, ''),
	latitude, longitude, created_at, updated_at`

func scanTenant(row pgx.Row) (Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.SchoolCode, &t.SchoolType,
		&t.Province, &t.District, &t.Zone, &t.Division, &t.Mediums,
		&t.AddressLine1, &t.AddressLine2, &t.City,
		&t.Latitude, &t.Longitude, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create inserts a tenant.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Tenant, error) {
	var tenant Tenant
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO tenants (id, name, school_code, school_type, province, district, zone, division,
			                      mediums, address_line1, address_line2, city, latitude, longitude)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), $13, $14)
			 RETURNING `+tenantColumns,
			uuid.NewString(), in.Name, in.SchoolCode, in.SchoolType, in.Province, in.District,
			in.Zone, in.Division, in.Mediums, in.AddressLine1, in.AddressLine2, in.City,
			in.Latitude, in.Longitude)
		t, err := scanTenant(row)
		if err != nil {
			return err
		}
		tenant = t
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Tenant{}, httpx.ErrDuplicate
		}
		return Tenant{}, err
	}
	return tenant, nil
}

// List returns all tenants ordered by name.
func (r *Repository) List(ctx context.Context) ([]Tenant, error) {
	var tenants []Tenant
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTenant(rows)
			if err != nil {
				return err
			}
			tenants = append(tenants, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

// Get fetches a tenant by ID.
func (r *Repository) Get(ctx context.Context, id string) (Tenant, error) {
	var tenant Tenant
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		t, err := scanTenant(tx.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
		if err != nil {
			return err
		}
		tenant = t
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, httpx.ErrNotFound
		}
		return Tenant{}, err
	}
	return tenant, nil
}

// Update applies the non-nil fields of in.
func (r *Repository) Update(ctx context.Context, id string, in UpdateInput) (Tenant, error) {
	var tenant Tenant
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE tenants SET
			    name          = COALESCE($2, name),
			    school_code   = COALESCE($3, school_code),
			    school_type   = COALESCE($4, school_type),
			    province      = COALESCE($5, province),
			    district      = COALESCE($6, district),
			    zone          = COALESCE($7, zone),
			    division      = COALESCE($8, division),
			    mediums       = COALESCE($9, mediums),
			    address_line1 = COALESCE($10, address_line1),
			    address_line2 = COALESCE($11, address_line2),
			    city          = COALESCE($12, city),
			    latitude      = COALESCE($13, latitude),
			    longitude     = COALESCE($14, longitude),
			    updated_at    = now()
			 WHERE id = $1
			 RETURNING `+tenantColumns,
			id, in.Name, in.SchoolCode, in.SchoolType, in.Province, in.District,
			in.Zone, in.Division, in.Mediums, in.AddressLine1, in.AddressLine2,
			in.City, in.Latitude, in.Longitude)
		t, err := scanTenant(row)
		if err != nil {
			return err
		}
		tenant = t
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, httpx.ErrNotFound
		}
		return Tenant{}, err
	}
	return tenant, nil
}
