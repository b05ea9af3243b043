package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

// TxRunner executes fn inside a database transaction. Repository calls made
// with the context fn receives run on that transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// DoctorChecker reports whether an account id belongs to an active doctor.
// Satisfied by the directory service.
type DoctorChecker interface {
	ActiveDoctor(ctx context.Context, accountID uuid.UUID) (bool, error)
}

type Service struct {
	appointments AppointmentRepository
	treatments   TreatmentRepository
	doctors      DoctorChecker
	runTx        TxRunner
	log          zerolog.Logger
	now          func() time.Time
}

func NewService(appointments AppointmentRepository, treatments TreatmentRepository, doctors DoctorChecker, runTx TxRunner, log zerolog.Logger) *Service {
	return &Service{
		appointments: appointments,
		treatments:   treatments,
		doctors:      doctors,
		runTx:        runTx,
		log:          log,
		now:          time.Now,
	}
}

// normalizeSlot parses the wire-format date and time and returns them in
// canonical form, so "9:05" and "09:05" land on the same slot.
func normalizeSlot(date, timeOfDay string) (string, string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", "", fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	t, err := time.Parse(TimeLayout, timeOfDay)
	if err != nil {
		return "", "", fmt.Errorf("%w: time must be HH:MM", ErrValidation)
	}
	return d.Format(DateLayout), t.Format(TimeLayout), nil
}

// Book creates a Booked appointment for the patient. The slot pre-check gives
// a fast rejection; the partial unique index behind Create is the
// authoritative arbiter when two bookings race past the pre-check.
func (s *Service) Book(ctx context.Context, actor auth.Identity, doctorID uuid.UUID, date, timeOfDay string) (*Appointment, error) {
	date, timeOfDay, err := normalizeSlot(date, timeOfDay)
	if err != nil {
		return nil, err
	}
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id is required", ErrValidation)
	}

	active, err := s.doctors.ActiveDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrDoctorNotFound
	}

	taken, err := s.appointments.SlotTaken(ctx, doctorID, date, timeOfDay, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	a := &Appointment{
		PatientID: actor.AccountID,
		DoctorID:  doctorID,
		Date:      date,
		Time:      timeOfDay,
		Status:    StatusBooked,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("date", date).Str("time", timeOfDay).
		Msg("appointment booked")
	return a, nil
}

// Reschedule moves a Booked appointment to a new slot. Only the owning
// patient may reschedule, and the conflict check skips the appointment's own
// id so moving to the same slot is a no-op rather than a conflict.
func (s *Service) Reschedule(ctx context.Context, actor auth.Identity, id uuid.UUID, date, timeOfDay string) (*Appointment, error) {
	date, timeOfDay, err := normalizeSlot(date, timeOfDay)
	if err != nil {
		return nil, err
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PatientID != actor.AccountID {
		return nil, ErrNotOwner
	}
	if err := requireBooked(a); err != nil {
		return nil, err
	}

	taken, err := s.appointments.SlotTaken(ctx, a.DoctorID, date, timeOfDay, a.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	a.Date = date
	a.Time = timeOfDay
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel moves a Booked appointment to Cancelled. Allowed for the owning
// patient and for the assigned doctor.
func (s *Service) Cancel(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case auth.RolePatient:
		if a.PatientID != actor.AccountID {
			return nil, ErrNotOwner
		}
	case auth.RoleDoctor:
		if a.DoctorID != actor.AccountID {
			return nil, ErrNotOwner
		}
	default:
		return nil, ErrNotOwner
	}

	if err := requireBooked(a); err != nil {
		return nil, err
	}

	a.Status = StatusCancelled
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}

	s.log.Info().Str("appointment_id", a.ID.String()).Msg("appointment cancelled")
	return a, nil
}

// Complete moves a Booked appointment to Completed and records the treatment
// in the same transaction. Only the assigned doctor may complete.
func (s *Service) Complete(ctx context.Context, actor auth.Identity, id uuid.UUID, diagnosis, prescription, notes string) (*Appointment, *Treatment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if a.DoctorID != actor.AccountID {
		return nil, nil, ErrNotOwner
	}
	if err := requireBooked(a); err != nil {
		return nil, nil, err
	}

	t := &Treatment{
		AppointmentID: a.ID,
		Diagnosis:     diagnosis,
		Prescription:  prescription,
		Notes:         notes,
	}
	err = s.runTx(ctx, func(ctx context.Context) error {
		a.Status = StatusCompleted
		if err := s.appointments.Update(ctx, a); err != nil {
			return err
		}
		return s.treatments.Create(ctx, t)
	})
	if err != nil {
		a.Status = StatusBooked
		return nil, nil, err
	}

	s.log.Info().
		Str("appointment_id", a.ID.String()).
		Str("treatment_id", t.ID.String()).
		Msg("appointment completed")
	return a, t, nil
}

func requireBooked(a *Appointment) error {
	switch a.Status {
	case StatusBooked:
		return nil
	case StatusCompleted:
		return ErrAlreadyCompleted
	case StatusCancelled:
		return ErrAlreadyCancelled
	default:
		return ErrNotBooked
	}
}

// GetAppointment returns an appointment visible to the actor: admins see all,
// patients and doctors only their own.
func (s *Service) GetAppointment(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := visibleTo(actor, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetTreatment returns the treatment of a completed appointment, with the
// same visibility rule as the appointment itself.
func (s *Service) GetTreatment(ctx context.Context, actor auth.Identity, appointmentID uuid.UUID) (*Treatment, error) {
	a, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := visibleTo(actor, a); err != nil {
		return nil, err
	}
	return s.treatments.GetByAppointment(ctx, appointmentID)
}

func visibleTo(actor auth.Identity, a *Appointment) error {
	switch actor.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RolePatient:
		if a.PatientID == actor.AccountID {
			return nil
		}
	case auth.RoleDoctor:
		if a.DoctorID == actor.AccountID {
			return nil
		}
	}
	return ErrNotOwner
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListAll(ctx, limit, offset)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

// UpcomingForDoctor returns the doctor's Booked appointments over the next
// seven days, today included.
func (s *Service) UpcomingForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	from := s.now().Format(DateLayout)
	return s.appointments.ListUpcomingByDoctor(ctx, doctorID, from, 7)
}

func (s *Service) PatientsForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*PatientSummary, int, error) {
	return s.appointments.DistinctPatients(ctx, doctorID, limit, offset)
}

func (s *Service) CountAppointments(ctx context.Context) (int, error) {
	return s.appointments.Count(ctx)
}
