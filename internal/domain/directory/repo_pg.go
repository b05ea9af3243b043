package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type departmentRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

func (r *departmentRepoPG) conn(ctx context.Context) db.Conn {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO department (id, name, description)
		VALUES ($1, $2, $3)`,
		d.ID, d.Name, d.Description)
	if err != nil {
		if db.IsUniqueViolation(err, "department_name_key") {
			return ErrDepartmentExists
		}
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

func (r *departmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	var d Department
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, description FROM department WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *departmentRepoPG) List(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, description FROM department ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

func (r *departmentRepoPG) Update(ctx context.Context, d *Department) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE department SET name = $2, description = $3
		WHERE id = $1`,
		d.ID, d.Name, d.Description)
	if err != nil {
		if db.IsUniqueViolation(err, "department_name_key") {
			return ErrDepartmentExists
		}
		return fmt.Errorf("update department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) db.Conn {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *doctorRepoPG) CreateProfile(ctx context.Context, p *DoctorProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_profile (id, account_id, department_id, availability)
		VALUES ($1, $2, $3, $4)`,
		p.ID, p.AccountID, p.DepartmentID, p.Availability)
	if err != nil {
		if db.IsUniqueViolation(err, "doctor_profile_account_key") {
			return ErrProfileExists
		}
		return fmt.Errorf("create doctor profile: %w", err)
	}
	return nil
}

func (r *doctorRepoPG) GetProfileByAccount(ctx context.Context, accountID uuid.UUID) (*DoctorProfile, error) {
	var p DoctorProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, account_id, department_id, availability
		FROM doctor_profile WHERE account_id = $1`, accountID).
		Scan(&p.ID, &p.AccountID, &p.DepartmentID, &p.Availability)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *doctorRepoPG) UpdateProfile(ctx context.Context, p *DoctorProfile) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor_profile SET department_id = $2, availability = $3
		WHERE account_id = $1`,
		p.AccountID, p.DepartmentID, p.Availability)
	if err != nil {
		return fmt.Errorf("update doctor profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

const doctorCols = `
	a.id, a.name, a.email, a.active,
	dp.department_id, d.name, dp.availability`

const doctorJoin = `
	FROM doctor_profile dp
	JOIN account a ON a.id = dp.account_id
	JOIN department d ON d.id = dp.department_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var doc Doctor
	err := row.Scan(&doc.AccountID, &doc.Name, &doc.Email, &doc.Active,
		&doc.DepartmentID, &doc.DepartmentName, &doc.Availability)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *doctorRepoPG) GetDoctor(ctx context.Context, accountID uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+doctorJoin+` WHERE a.id = $1`, accountID))
}

func (r *doctorRepoPG) ListDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	where := ` WHERE a.active`
	args := []any{}
	n := 0
	if f.DepartmentID != uuid.Nil {
		n++
		where += fmt.Sprintf(" AND dp.department_id = $%d", n)
		args = append(args, f.DepartmentID)
	}
	if f.Availability != "" {
		n++
		where += fmt.Sprintf(" AND dp.availability ILIKE $%d", n)
		args = append(args, "%"+f.Availability+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*)`+doctorJoin+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + doctorCols + doctorJoin + where +
		fmt.Sprintf(" ORDER BY a.name LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, doc)
	}
	return items, total, rows.Err()
}
