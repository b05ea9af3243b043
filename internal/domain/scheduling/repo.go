package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// Update persists date, time and status for an existing appointment.
	Update(ctx context.Context, a *Appointment) error
	// SlotTaken reports whether the doctor already has a Booked appointment
	// at the slot. excludeID is skipped so a reschedule does not collide with
	// the appointment being moved; pass uuid.Nil for new bookings.
	SlotTaken(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, excludeID uuid.UUID) (bool, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// ListUpcomingByDoctor returns the doctor's Booked appointments with
	// dates in [from, from+days).
	ListUpcomingByDoctor(ctx context.Context, doctorID uuid.UUID, from string, days int) ([]*Appointment, error)
	// DistinctPatients lists the patients a doctor has seen, with visit
	// counts and the most recent appointment date.
	DistinctPatients(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*PatientSummary, int, error)
	Count(ctx context.Context) (int, error)
}

type TreatmentRepository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Treatment, error)
}
