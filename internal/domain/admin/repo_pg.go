package admin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/domain/directory"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/db"
)

type searchRepoPG struct{ pool *pgxpool.Pool }

func NewSearchRepoPG(pool *pgxpool.Pool) SearchRepository {
	return &searchRepoPG{pool: pool}
}

func (r *searchRepoPG) conn(ctx context.Context) db.Conn {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *searchRepoPG) SearchAccounts(ctx context.Context, query, role string, limit, offset int) ([]*identity.Account, int, error) {
	pattern := "%" + query + "%"
	where := ` WHERE (name ILIKE $1 OR email ILIKE $1)`
	args := []any{pattern}
	if role != "" {
		where += ` AND role = $2`
		args = append(args, role)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM account`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	sql := `SELECT id, name, email, role, password_hash, active, created_at FROM account` +
		where + fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*identity.Account
	for rows.Next() {
		var a identity.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.PasswordHash, &a.Active, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &a)
	}
	return items, total, rows.Err()
}

func (r *searchRepoPG) SearchDoctorsByDepartment(ctx context.Context, department string, limit, offset int) ([]*directory.Doctor, int, error) {
	pattern := "%" + department + "%"

	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM doctor_profile dp
		JOIN account a ON a.id = dp.account_id
		JOIN department d ON d.id = dp.department_id
		WHERE a.active AND d.name ILIKE $1`, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, a.name, a.email, a.active,
		       dp.department_id, d.name, dp.availability
		FROM doctor_profile dp
		JOIN account a ON a.id = dp.account_id
		JOIN department d ON d.id = dp.department_id
		WHERE a.active AND d.name ILIKE $1
		ORDER BY a.name
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*directory.Doctor
	for rows.Next() {
		var doc directory.Doctor
		if err := rows.Scan(&doc.AccountID, &doc.Name, &doc.Email, &doc.Active,
			&doc.DepartmentID, &doc.DepartmentName, &doc.Availability); err != nil {
			return nil, 0, err
		}
		items = append(items, &doc)
	}
	return items, total, rows.Err()
}
