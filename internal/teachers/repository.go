package teachers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/campusgate/campusgate/internal/platform/db"
	"github.com/campusgate/campusgate/internal/platform/httpx"
	"github.com/campusgate/campusgate/internal/platform/secctx"
)

type Repository struct {
	gateway *db.RLS
}

func NewRepository(gateway *db.RLS) *Repository {
	return &Repository{gateway: gateway}
}

const profileColumns = `id, COALESCE(tenant_id::text, ''), system_code, COALESCE(user_id::text, ''),
	full_name, COALESCE(initials, ''), nic, COALESCE(tin, ''), subject_codes,
	appointment_type, service_start, COALESCE(employment_status, ''), date_of_birth,
	gender, COALESCE(mother_tongue, ''), COALESCE(religion, ''), COALESCE(ethnicity, ''),
	created_at, updated_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.TenantID, &p.SystemCode, &p.UserID, &p.FullName, &p.Initials,
		&p.NIC, &p.TIN, &p.SubjectCodes, &p.AppointmentType, &p.ServiceStart,
		&p.EmploymentStatus, &p.DateOfBirth, &p.Gender, &p.MotherTongue, &p.Religion,
		&p.Ethnicity, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create generates the next tenant-sequential system code and inserts the
// profile in the same transaction so concurrent admissions cannot race to
// the same code without tripping the unique constraint.
func (r *Repository) Create(ctx context.Context, profile Profile) (Profile, error) {
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tenantID := secctx.From(ctx).TenantID

		var schoolCode string
		err := tx.QueryRow(ctx,
			`SELECT school_code FROM tenants WHERE id = $1`, tenantID).Scan(&schoolCode)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: tenant not found", httpx.ErrNotFound)
			}
			return err
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM teacher_profiles`).Scan(&count); err != nil {
			return err
		}

		profile.ID = uuid.NewString()
		profile.TenantID = tenantID
		profile.SystemCode = fmt.Sprintf("EV-%s-TEA-%06d", schoolCode, count+1)
		if profile.SubjectCodes == nil {
			profile.SubjectCodes = []string{}
		}

		return tx.QueryRow(ctx,
			`INSERT INTO teacher_profiles
			   (id, tenant_id, system_code, user_id, full_name, initials, nic, tin,
			    subject_codes, appointment_type, service_start, employment_status,
			    date_of_birth, gender, mother_tongue, religion, ethnicity)
			 VALUES ($1, $2, $3, NULLIF($4,'')::uuid, $5, NULLIF($6,''), $7, NULLIF($8,''),
			         $9, $10, $11, NULLIF($12,''), $13, $14, NULLIF($15,''), NULLIF($16,''),
			         NULLIF($17,''))
			 RETURNING created_at, updated_at`,
			profile.ID, profile.TenantID, profile.SystemCode, profile.UserID,
			profile.FullName, profile.Initials, profile.NIC, profile.TIN,
			profile.SubjectCodes, profile.AppointmentType, profile.ServiceStart,
			profile.EmploymentStatus, profile.DateOfBirth, profile.Gender,
			profile.MotherTongue, profile.Religion, profile.Ethnicity).
			Scan(&profile.CreatedAt, &profile.UpdatedAt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Profile{}, fmt.Errorf("%w: %s", httpx.ErrDuplicate, pgErr.ConstraintName)
		}
		return Profile{}, err
	}
	return profile, nil
}

func (r *Repository) List(ctx context.Context) ([]Profile, error) {
	var out []Profile
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+profileColumns+` FROM teacher_profiles ORDER BY created_at DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

func (r *Repository) Get(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		var err error
		p, err = scanProfile(tx.QueryRow(ctx,
			`SELECT `+profileColumns+` FROM teacher_profiles WHERE id = $1`, id))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: teacher not found", httpx.ErrNotFound)
	}
	return p, err
}

// GetByUser resolves the profile linked to a login user, used by schedule
// and leave lookups for the calling teacher.
func (r *Repository) GetByUser(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		var err error
		p, err = scanProfile(tx.QueryRow(ctx,
			`SELECT `+profileColumns+` FROM teacher_profiles WHERE user_id = $1`, userID))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: no teacher profile for user", httpx.ErrNotFound)
	}
	return p, err
}

// UpdateParams carries optional changes; nil/empty fields are kept.
type UpdateParams struct {
	FullName         string
	Initials         string
	NIC              string
	TIN              string
	SubjectCodes     []string
	AppointmentType  string
	ServiceStart     *time.Time
	DateOfBirth      *time.Time
	EmploymentStatus string
	Gender           string
	MotherTongue     string
	Religion         string
	Ethnicity        string
	UserID           string
}

func (r *Repository) Update(ctx context.Context, id string, params UpdateParams) (Profile, error) {
	var p Profile
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		var err error
		p, err = scanProfile(tx.QueryRow(ctx,
			`UPDATE teacher_profiles SET
			   full_name         = COALESCE(NULLIF($2,''), full_name),
			   initials          = COALESCE(NULLIF($3,''), initials),
			   nic               = COALESCE(NULLIF($4,''), nic),
			   tin               = COALESCE(NULLIF($5,''), tin),
			   subject_codes     = COALESCE($6, subject_codes),
			   appointment_type  = COALESCE(NULLIF($7,''), appointment_type),
			   service_start     = COALESCE($8, service_start),
			   date_of_birth     = COALESCE($9, date_of_birth),
			   employment_status = COALESCE(NULLIF($10,''), employment_status),
			   gender            = COALESCE(NULLIF($11,''), gender),
			   mother_tongue     = COALESCE(NULLIF($12,''), mother_tongue),
			   religion          = COALESCE(NULLIF($13,''), religion),
			   ethnicity         = COALESCE(NULLIF($14,''), ethnicity),
			   user_id           = COALESCE(NULLIF($15,'')::uuid, user_id),
			   updated_at        = now()
			 WHERE id = $1
			 RETURNING `+profileColumns,
			id, params.FullName, params.Initials, params.NIC, params.TIN,
			params.SubjectCodes, params.AppointmentType, params.ServiceStart,
			params.DateOfBirth, params.EmploymentStatus, params.Gender,
			params.MotherTongue, params.Religion, params.Ethnicity, params.UserID))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: teacher not found", httpx.ErrNotFound)
	}
	return p, err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM teacher_profiles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: teacher not found", httpx.ErrNotFound)
	}
	return err
}
