package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Conn {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const appointmentCols = `
	id, patient_id, doctor_id,
	to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI'),
	status, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, date, time, status)
		VALUES ($1, $2, $3, $4::date, $5::time, $6)
		RETURNING created_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Status).Scan(&a.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "appointment_slot_booked") {
			return ErrSlotTaken
		}
		if db.IsForeignKeyViolation(err, "appointment_doctor_id_fkey") {
			return ErrDoctorNotFound
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET date = $2::date, time = $3::time, status = $4
		WHERE id = $1`,
		a.ID, a.Date, a.Time, a.Status)
	if err != nil {
		if db.IsUniqueViolation(err, "appointment_slot_booked") {
			return ErrSlotTaken
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) SlotTaken(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE doctor_id = $1 AND date = $2::date AND time = $3::time
			  AND status = 'Booked' AND id <> $4
		)`, doctorID, date, timeOfDay, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return taken, nil
}

func (r *appointmentRepoPG) list(ctx context.Context, where, order string, args []any, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT ` + appointmentCols + ` FROM appointment` + where + order +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "", ` ORDER BY date DESC, time DESC`, nil, limit, offset)
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, ` WHERE patient_id = $1`, ` ORDER BY date DESC, time DESC`,
		[]any{patientID}, limit, offset)
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, ` WHERE doctor_id = $1`, ` ORDER BY date ASC, time ASC`,
		[]any{doctorID}, limit, offset)
}

func (r *appointmentRepoPG) ListUpcomingByDoctor(ctx context.Context, doctorID uuid.UUID, from string, days int) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentCols+` FROM appointment
		WHERE doctor_id = $1 AND status = 'Booked'
		  AND date >= $2::date AND date < $2::date + $3
		ORDER BY date ASC, time ASC`, doctorID, from, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) DistinctPatients(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*PatientSummary, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(DISTINCT patient_id) FROM appointment
		WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, a.name, a.email,
		       to_char(MAX(ap.date), 'YYYY-MM-DD'), COUNT(*)
		FROM appointment ap
		JOIN account a ON a.id = ap.patient_id
		WHERE ap.doctor_id = $1
		GROUP BY a.id, a.name, a.email
		ORDER BY MAX(ap.date) DESC
		LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*PatientSummary
	for rows.Next() {
		var p PatientSummary
		if err := rows.Scan(&p.AccountID, &p.Name, &p.Email, &p.LastVisit, &p.VisitCount); err != nil {
			return nil, 0, err
		}
		items = append(items, &p)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`).Scan(&n)
	return n, err
}

type treatmentRepoPG struct{ pool *pgxpool.Pool }

func NewTreatmentRepoPG(pool *pgxpool.Pool) TreatmentRepository {
	return &treatmentRepoPG{pool: pool}
}

func (r *treatmentRepoPG) conn(ctx context.Context) db.Conn {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *treatmentRepoPG) Create(ctx context.Context, t *Treatment) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment (id, appointment_id, diagnosis, prescription, notes)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.AppointmentID, t.Diagnosis, t.Prescription, t.Notes)
	if err != nil {
		if db.IsUniqueViolation(err, "treatment_appointment_key") {
			return ErrAlreadyCompleted
		}
		return fmt.Errorf("create treatment: %w", err)
	}
	return nil
}

func (r *treatmentRepoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Treatment, error) {
	var t Treatment
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, appointment_id, diagnosis, prescription, notes
		FROM treatment WHERE appointment_id = $1`, appointmentID).
		Scan(&t.ID, &t.AppointmentID, &t.Diagnosis, &t.Prescription, &t.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTreatmentNotFound
		}
		return nil, err
	}
	return &t, nil
}
