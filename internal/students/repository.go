package students

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

// Repository persists students and their related guardian records.
type Repository struct {
	gateway *db.RLS
}

func NewRepository(gateway *db.RLS) *Repository {
	return &Repository{gateway: gateway}
}

// AdmitParams is the validated input for the admission transaction.
type AdmitParams struct {
	Student   Student
	Addresses []Address
	Parent    Parent

	// InviteParent asks for a PARENT login with a pending invite token.
	InviteParent bool
	InviteTTL    time.Duration
}

// Admit creates the student, addresses, guardian link and (optionally) the
// parent login inside one transaction so a half-admitted student can never
// be observed.
func (r *Repository) Admit(ctx context.Context, params AdmitParams) (AdmissionResult, error) {
	var result AdmissionResult
	err := r.gateway.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tenantID := secctx.From(ctx).TenantID
		student := params.Student
		student.ID = uuid.NewString()
		student.TenantID = tenantID
		student.SystemCode = "ST-" + uuid.NewString()[:8]
		student.Status = StatusActive

		err := tx.QueryRow(ctx,
			`INSERT INTO students
			   (id, tenant_id, system_code, admission_number, index_number, full_name,
			    initials, date_of_birth, gender, medium, religion, admission_date, status)
			 VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, NULLIF($7,''), $8, $9,
			         NULLIF($10,''), NULLIF($11,''), $12, $13)
			 RETURNING created_at, updated_at`,
			student.ID, student.TenantID, student.SystemCode, student.AdmissionNumber,
			student.IndexNumber, student.FullName, student.Initials, student.DateOfBirth,
			student.Gender, student.Medium, student.Religion, student.AdmissionDate,
			student.Status).
			Scan(&student.CreatedAt, &student.UpdatedAt)
		if err != nil {
			return admitError(err)
		}

		for _, addr := range params.Addresses {
			_, err = tx.Exec(ctx,
				`INSERT INTO student_addresses
				   (id, tenant_id, student_id, address_type, line1, line2, city, district, postal_code)
				 VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, NULLIF($8,''), NULLIF($9,''))`,
				uuid.NewString(), tenantID, student.ID, addr.AddressType,
				addr.Line1, addr.Line2, addr.City, addr.District, addr.PostalCode)
			if err != nil {
				return fmt.Errorf("insert address: %w", err)
			}
		}

		parent, reused, err := upsertParent(ctx, tx, tenantID, params.Parent)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO student_parents (id, tenant_id, student_id, parent_id, relation, is_primary_guardian)
			 VALUES ($1, $2, $3, $4, $5, TRUE)`,
			uuid.NewString(), tenantID, student.ID, parent.ID, parent.Relation)
		if err != nil {
			return fmt.Errorf("link guardian: %w", err)
		}

		inviteCreated := false
		if params.InviteParent && parent.Email != "" && !reused {
			inviteCreated, err = createParentInvite(ctx, tx, tenantID, parent, params.InviteTTL)
			if err != nil {
				return err
			}
		}

		result = AdmissionResult{
			Student:       student,
			Parent:        parent,
			ParentReused:  reused,
			InviteCreated: inviteCreated,
		}
		return nil
	})
	return result, err
}

// upsertParent reuses an existing guardian with the same NIC or creates a
// fresh record.
func upsertParent(ctx context.Context, tx pgx.Tx, tenantID string, in Parent) (Parent, bool, error) {
	var existing Parent
	err := tx.QueryRow(ctx,
		`SELECT id, full_name, nic, phone, COALESCE(email, '')
		 FROM parents WHERE nic = $1`, in.NIC).
		Scan(&existing.ID, &existing.FullName, &existing.NIC, &existing.Phone, &existing.Email)
	if err == nil {
		existing.Relation = in.Relation
		return existing, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Parent{}, false, fmt.Errorf("lookup guardian: %w", err)
	}

	in.ID = uuid.NewString()
	_, err = tx.Exec(ctx,
		`INSERT INTO parents (id, tenant_id, full_name, nic, phone, email)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6,''))`,
		in.ID, tenantID, in.FullName, in.NIC, in.Phone, in.Email)
	if err != nil {
		return Parent{}, false, admitError(err)
	}
	return in, false, nil
}

// createParentInvite provisions a pending PARENT login plus an invite token
// row, unless a user with the same email already exists.
func createParentInvite(ctx context.Context, tx pgx.Tx, tenantID string, parent Parent, ttl time.Duration) (bool, error) {
	var taken bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, parent.Email).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check invite email: %w", err)
	}
	if taken {
		return false, nil
	}

	userID := uuid.NewString()
	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, tenant_id, email, full_name, role, is_active, invite_pending)
		 VALUES ($1, $2, $3, $4, 'PARENT', FALSE, TRUE)`,
		userID, tenantID, parent.Email, parent.FullName)
	if err != nil {
		return false, fmt.Errorf("create parent login: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO invite_tokens (id, tenant_id, user_id, token, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), tenantID, userID, uuid.NewString(), time.Now().Add(ttl))
	if err != nil {
		return false, fmt.Errorf("create invite token: %w", err)
	}
	return true, nil
}

const studentColumns = `id, COALESCE(tenant_id::text, ''), system_code, admission_number,
	COALESCE(index_number, ''), full_name, COALESCE(initials, ''), date_of_birth, gender,
	COALESCE(medium, ''), COALESCE(religion, ''), admission_date, status,
	created_at, updated_at, deleted_at`

func scanStudent(row pgx.Row) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.TenantID, &s.SystemCode, &s.AdmissionNumber, &s.IndexNumber,
		&s.FullName, &s.Initials, &s.DateOfBirth, &s.Gender, &s.Medium, &s.Religion,
		&s.AdmissionDate, &s.Status, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	return s, err
}

// ListFilter narrows the student listing.
type ListFilter struct {
	Search string
	Status string
	Limit  int
	Offset int
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Student, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	var out []Student
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+studentColumns+` FROM students
			 WHERE deleted_at IS NULL
			   AND ($1 = '' OR full_name ILIKE '%' || $1 || '%' OR admission_number ILIKE '%' || $1 || '%')
			   AND ($2 = '' OR status = $2)
			 ORDER BY admission_number
			 LIMIT $3 OFFSET $4`,
			filter.Search, filter.Status, filter.Limit, filter.Offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanStudent(rows)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

func (r *Repository) Get(ctx context.Context, id string) (Detail, error) {
	var detail Detail
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		s, err := scanStudent(tx.QueryRow(ctx,
			`SELECT `+studentColumns+` FROM students WHERE id = $1 AND deleted_at IS NULL`, id))
		if err != nil {
			return err
		}
		detail.Student = s

		rows, err := tx.Query(ctx,
			`SELECT id, address_type, line1, COALESCE(line2, ''), city,
			        COALESCE(district, ''), COALESCE(postal_code, '')
			 FROM student_addresses WHERE student_id = $1 ORDER BY address_type`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var a Address
			if err := rows.Scan(&a.ID, &a.AddressType, &a.Line1, &a.Line2, &a.City, &a.District, &a.PostalCode); err != nil {
				return err
			}
			detail.Addresses = append(detail.Addresses, a)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		prows, err := tx.Query(ctx,
			`SELECT p.id, p.full_name, p.nic, p.phone, COALESCE(p.email, ''), sp.relation
			 FROM student_parents sp
			 JOIN parents p ON p.id = sp.parent_id
			 WHERE sp.student_id = $1
			 ORDER BY sp.is_primary_guardian DESC`, id)
		if err != nil {
			return err
		}
		defer prows.Close()
		for prows.Next() {
			var p Parent
			if err := prows.Scan(&p.ID, &p.FullName, &p.NIC, &p.Phone, &p.Email, &p.Relation); err != nil {
				return err
			}
			detail.Parents = append(detail.Parents, p)
		}
		return prows.Err()
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, fmt.Errorf("%w: student not found", httpx.ErrNotFound)
	}
	return detail, err
}

// UpdateParams carries optional profile changes; empty fields are kept.
type UpdateParams struct {
	FullName    string
	Initials    string
	IndexNumber string
	Medium      string
	Religion    string
	Status      string
}

func (r *Repository) Update(ctx context.Context, id string, params UpdateParams) (Student, error) {
	var s Student
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		var err error
		s, err = scanStudent(tx.QueryRow(ctx,
			`UPDATE students SET
			   full_name    = COALESCE(NULLIF($2,''), full_name),
			   initials     = COALESCE(NULLIF($3,''), initials),
			   index_number = COALESCE(NULLIF($4,''), index_number),
			   medium       = COALESCE(NULLIF($5,''), medium),
			   religion     = COALESCE(NULLIF($6,''), religion),
			   status       = COALESCE(NULLIF($7,''), status),
			   updated_at   = now()
			 WHERE id = $1 AND deleted_at IS NULL
			 RETURNING `+studentColumns,
			id, params.FullName, params.Initials, params.IndexNumber,
			params.Medium, params.Religion, params.Status))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Student{}, fmt.Errorf("%w: student not found", httpx.ErrNotFound)
	}
	return s, err
}

// Remove soft-deletes the student and marks them inactive.
func (r *Repository) Remove(ctx context.Context, id string) error {
	err := r.gateway.Query(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE students SET deleted_at = now(), status = $2, updated_at = now()
			 WHERE id = $1 AND deleted_at IS NULL`, id, StatusInactive)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: student not found", httpx.ErrNotFound)
	}
	return err
}

func admitError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", httpx.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
