package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

// -- Mock Repositories --

type mockAppointmentRepo struct {
	appointments map[uuid.UUID]*Appointment
	failUpdate   error
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	taken, _ := m.SlotTaken(context.Background(), a.DoctorID, a.Date, a.Time, uuid.Nil)
	if taken && a.Status == StatusBooked {
		return ErrSlotTaken
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	if m.failUpdate != nil {
		return m.failUpdate
	}
	if _, ok := m.appointments[a.ID]; !ok {
		return ErrNotFound
	}
	if a.Status == StatusBooked {
		taken, _ := m.SlotTaken(context.Background(), a.DoctorID, a.Date, a.Time, a.ID)
		if taken {
			return ErrSlotTaken
		}
	}
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) SlotTaken(_ context.Context, doctorID uuid.UUID, date, timeOfDay string, excludeID uuid.UUID) (bool, error) {
	for _, a := range m.appointments {
		if a.ID == excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.Date == date && a.Time == timeOfDay && a.Status == StatusBooked {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAppointmentRepo) ListAll(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appointments {
		result = append(result, a)
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) ListUpcomingByDoctor(_ context.Context, doctorID uuid.UUID, from string, days int) ([]*Appointment, error) {
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 0, days)
	var result []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID != doctorID || a.Status != StatusBooked {
			continue
		}
		d, err := time.Parse(DateLayout, a.Date)
		if err != nil {
			continue
		}
		if !d.Before(start) && d.Before(end) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAppointmentRepo) DistinctPatients(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*PatientSummary, int, error) {
	seen := make(map[uuid.UUID]*PatientSummary)
	for _, a := range m.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		p, ok := seen[a.PatientID]
		if !ok {
			p = &PatientSummary{AccountID: a.PatientID}
			seen[a.PatientID] = p
		}
		p.VisitCount++
		if a.Date > p.LastVisit {
			p.LastVisit = a.Date
		}
	}
	var result []*PatientSummary
	for _, p := range seen {
		result = append(result, p)
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) Count(_ context.Context) (int, error) {
	return len(m.appointments), nil
}

type mockDoctorDirectory struct {
	active map[uuid.UUID]bool
}

func newMockDoctorDirectory() *mockDoctorDirectory {
	return &mockDoctorDirectory{active: make(map[uuid.UUID]bool)}
}

func (m *mockDoctorDirectory) ActiveDoctor(_ context.Context, accountID uuid.UUID) (bool, error) {
	return m.active[accountID], nil
}

func (m *mockDoctorDirectory) add(id uuid.UUID) {
	m.active[id] = true
}

func (m *mockDoctorDirectory) deactivate(id uuid.UUID) {
	m.active[id] = false
}

type mockTreatmentRepo struct {
	treatments map[uuid.UUID]*Treatment
	failCreate error
}

func newMockTreatmentRepo() *mockTreatmentRepo {
	return &mockTreatmentRepo{treatments: make(map[uuid.UUID]*Treatment)}
}

func (m *mockTreatmentRepo) Create(_ context.Context, t *Treatment) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	if _, ok := m.treatments[t.AppointmentID]; ok {
		return ErrAlreadyCompleted
	}
	t.ID = uuid.New()
	cp := *t
	m.treatments[t.AppointmentID] = &cp
	return nil
}

func (m *mockTreatmentRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*Treatment, error) {
	t, ok := m.treatments[appointmentID]
	if !ok {
		return nil, ErrTreatmentNotFound
	}
	cp := *t
	return &cp, nil
}

// txRecorder mimics transactional rollback over the two mock repos: when fn
// fails, both stores are restored to their pre-transaction snapshots.
func txRecorder(appts *mockAppointmentRepo, treats *mockTreatmentRepo) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		apptSnap := make(map[uuid.UUID]*Appointment, len(appts.appointments))
		for k, v := range appts.appointments {
			cp := *v
			apptSnap[k] = &cp
		}
		treatSnap := make(map[uuid.UUID]*Treatment, len(treats.treatments))
		for k, v := range treats.treatments {
			cp := *v
			treatSnap[k] = &cp
		}
		if err := fn(ctx); err != nil {
			appts.appointments = apptSnap
			treats.treatments = treatSnap
			return err
		}
		return nil
	}
}

type testEnv struct {
	svc     *Service
	appts   *mockAppointmentRepo
	treats  *mockTreatmentRepo
	doctors *mockDoctorDirectory
}

func newTestEnv() *testEnv {
	appts := newMockAppointmentRepo()
	treats := newMockTreatmentRepo()
	doctors := newMockDoctorDirectory()
	svc := NewService(appts, treats, doctors, txRecorder(appts, treats), zerolog.Nop())
	return &testEnv{svc: svc, appts: appts, treats: treats, doctors: doctors}
}

// newDoctorID registers an active doctor in the directory mock and returns
// its account id, so bookings against it pass the doctor check.
func (e *testEnv) newDoctorID() uuid.UUID {
	id := uuid.New()
	e.doctors.add(id)
	return id
}

func (e *testEnv) newDoctorActor() auth.Identity {
	return auth.Identity{AccountID: e.newDoctorID(), Role: auth.RoleDoctor}
}

func patientActor() auth.Identity {
	return auth.Identity{AccountID: uuid.New(), Role: auth.RolePatient}
}

func doctorActor() auth.Identity {
	return auth.Identity{AccountID: uuid.New(), Role: auth.RoleDoctor}
}

// -- Tests --

func TestBook(t *testing.T) {
	env := newTestEnv()
	patient := patientActor()
	doctorID := env.newDoctorID()

	a, err := env.svc.Book(context.Background(), patient, doctorID, "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if a.Status != StatusBooked {
		t.Errorf("expected Booked, got %q", a.Status)
	}
	if a.PatientID != patient.AccountID || a.DoctorID != doctorID {
		t.Errorf("wrong parties: %+v", a)
	}
}

func TestBookUnknownDoctor(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.Book(context.Background(), patientActor(), uuid.New(), "2026-09-10", "09:30"); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound for unknown doctor id, got %v", err)
	}
	if got, _ := env.appts.Count(context.Background()); got != 0 {
		t.Errorf("no appointment may be created, got %d", got)
	}

	deactivated := env.newDoctorID()
	env.doctors.deactivate(deactivated)
	if _, err := env.svc.Book(context.Background(), patientActor(), deactivated, "2026-09-10", "09:30"); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound for deactivated doctor, got %v", err)
	}
}

func TestBookMalformedSlot(t *testing.T) {
	env := newTestEnv()
	patient := patientActor()

	cases := []struct{ date, timeOfDay string }{
		{"10-09-2026", "09:30"},
		{"2026-13-40", "09:30"},
		{"2026-09-10", "25:00"},
		{"2026-09-10", "nine"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := env.svc.Book(context.Background(), patient, uuid.New(), tc.date, tc.timeOfDay); !errors.Is(err, ErrValidation) {
			t.Errorf("Book(%q, %q): expected ErrValidation, got %v", tc.date, tc.timeOfDay, err)
		}
	}
}

func TestBookSlotConflict(t *testing.T) {
	env := newTestEnv()
	doctorID := env.newDoctorID()

	if _, err := env.svc.Book(context.Background(), patientActor(), doctorID, "2026-09-10", "09:30"); err != nil {
		t.Fatalf("first Book failed: %v", err)
	}
	if _, err := env.svc.Book(context.Background(), patientActor(), doctorID, "2026-09-10", "09:30"); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}

	// A different doctor at the same slot is fine.
	if _, err := env.svc.Book(context.Background(), patientActor(), env.newDoctorID(), "2026-09-10", "09:30"); err != nil {
		t.Errorf("different doctor should not conflict: %v", err)
	}
	// Same doctor at a different time is fine.
	if _, err := env.svc.Book(context.Background(), patientActor(), doctorID, "2026-09-10", "10:00"); err != nil {
		t.Errorf("different time should not conflict: %v", err)
	}
}

func TestBookCancelledSlotIsFree(t *testing.T) {
	env := newTestEnv()
	patient := patientActor()
	doctorID := env.newDoctorID()

	a, err := env.svc.Book(context.Background(), patient, doctorID, "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := env.svc.Cancel(context.Background(), patient, a.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if _, err := env.svc.Book(context.Background(), patientActor(), doctorID, "2026-09-10", "09:30"); err != nil {
		t.Errorf("cancelled slot must be bookable again: %v", err)
	}
}

func TestReschedule(t *testing.T) {
	env := newTestEnv()
	patient := patientActor()
	doctorID := env.newDoctorID()

	a, err := env.svc.Book(context.Background(), patient, doctorID, "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	moved, err := env.svc.Reschedule(context.Background(), patient, a.ID, "2026-09-11", "14:00")
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if moved.Date != "2026-09-11" || moved.Time != "14:00" {
		t.Errorf("slot not moved: %+v", moved)
	}
	if moved.Status != StatusBooked {
		t.Errorf("status must stay Booked, got %q", moved.Status)
	}
}

func TestRescheduleToOwnSlot(t *testing.T) {
	env := newTestEnv()
	patient := patientActor()

	a, err := env.svc.Book(context.Background(), patient, env.newDoctorID(), "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	// Moving onto its own current slot must not count as a conflict.
	if _, err := env.svc.Reschedule(context.Background(), patient, a.ID, "2026-09-10", "09:30"); err != nil {
		t.Errorf("reschedule to own slot should succeed: %v", err)
	}
}

func TestRescheduleConflict(t *testing.T) {
	env := newTestEnv()
	patient := patientActor()
	doctorID := env.newDoctorID()

	if _, err := env.svc.Book(context.Background(), patientActor(), doctorID, "2026-09-11", "14:00"); err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	a, err := env.svc.Book(context.Background(), patient, doctorID, "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	if _, err := env.svc.Reschedule(context.Background(), patient, a.ID, "2026-09-11", "14:00"); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}
}

func TestRescheduleOwnership(t *testing.T) {
	env := newTestEnv()
	patient := patientActor()

	a, err := env.svc.Book(context.Background(), patient, env.newDoctorID(), "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	other := patientActor()
	if _, err := env.svc.Reschedule(context.Background(), other, a.ID, "2026-09-11", "10:00"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if _, err := env.svc.Reschedule(context.Background(), patient, uuid.New(), "2026-09-11", "10:00"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelByDoctor(t *testing.T) {
	env := newTestEnv()
	doctor := env.newDoctorActor()

	a, err := env.svc.Book(context.Background(), patientActor(), doctor.AccountID, "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	got, err := env.svc.Cancel(context.Background(), doctor, a.ID)
	if err != nil {
		t.Fatalf("Cancel by assigned doctor failed: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected Cancelled, got %q", got.Status)
	}

	stranger := doctorActor()
	b, _ := env.svc.Book(context.Background(), patientActor(), doctor.AccountID, "2026-09-12", "11:00")
	if _, err := env.svc.Cancel(context.Background(), stranger, b.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("unassigned doctor must not cancel: got %v", err)
	}
}

func TestTerminalStatesReject(t *testing.T) {
	env := newTestEnv()
	patient := patientActor()
	doctor := env.newDoctorActor()

	a, err := env.svc.Book(context.Background(), patient, doctor.AccountID, "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := env.svc.Cancel(context.Background(), patient, a.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if _, err := env.svc.Cancel(context.Background(), patient, a.ID); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("re-cancel: expected ErrAlreadyCancelled, got %v", err)
	}
	if _, err := env.svc.Reschedule(context.Background(), patient, a.ID, "2026-09-11", "10:00"); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("reschedule cancelled: expected ErrAlreadyCancelled, got %v", err)
	}
	if _, _, err := env.svc.Complete(context.Background(), doctor, a.ID, "d", "p", "n"); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("complete cancelled: expected ErrAlreadyCancelled, got %v", err)
	}

	b, err := env.svc.Book(context.Background(), patient, doctor.AccountID, "2026-09-11", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, _, err := env.svc.Complete(context.Background(), doctor, b.ID, "d", "p", "n"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if _, _, err := env.svc.Complete(context.Background(), doctor, b.ID, "d", "p", "n"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("re-complete: expected ErrAlreadyCompleted, got %v", err)
	}
	if _, err := env.svc.Cancel(context.Background(), patient, b.ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("cancel completed: expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestComplete(t *testing.T) {
	env := newTestEnv()
	doctor := env.newDoctorActor()

	a, err := env.svc.Book(context.Background(), patientActor(), doctor.AccountID, "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	got, treatment, err := env.svc.Complete(context.Background(), doctor, a.ID, "flu", "rest and fluids", "follow up in a week")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("expected Completed, got %q", got.Status)
	}
	if treatment.AppointmentID != a.ID || treatment.Diagnosis != "flu" {
		t.Errorf("unexpected treatment: %+v", treatment)
	}

	stored, err := env.treats.GetByAppointment(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("treatment not persisted: %v", err)
	}
	if stored.Prescription != "rest and fluids" {
		t.Errorf("unexpected prescription %q", stored.Prescription)
	}
}

func TestCompleteOnlyAssignedDoctor(t *testing.T) {
	env := newTestEnv()
	doctor := env.newDoctorActor()

	a, err := env.svc.Book(context.Background(), patientActor(), doctor.AccountID, "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	other := doctorActor()
	if _, _, err := env.svc.Complete(context.Background(), other, a.ID, "d", "p", "n"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestCompleteAtomicRollback(t *testing.T) {
	env := newTestEnv()
	doctor := env.newDoctorActor()

	a, err := env.svc.Book(context.Background(), patientActor(), doctor.AccountID, "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	env.treats.failCreate = errors.New("insert failed")
	if _, _, err := env.svc.Complete(context.Background(), doctor, a.ID, "d", "p", "n"); err == nil {
		t.Fatal("expected Complete to fail")
	}

	// Neither side of the transaction may persist.
	got, err := env.appts.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != StatusBooked {
		t.Errorf("status change must roll back, got %q", got.Status)
	}
	if _, err := env.treats.GetByAppointment(context.Background(), a.ID); !errors.Is(err, ErrTreatmentNotFound) {
		t.Errorf("no treatment may persist, got %v", err)
	}

	// The appointment is still completable after the failure.
	env.treats.failCreate = nil
	if _, _, err := env.svc.Complete(context.Background(), doctor, a.ID, "d", "p", "n"); err != nil {
		t.Errorf("retry after rollback failed: %v", err)
	}
}

func TestGetTreatmentVisibility(t *testing.T) {
	env := newTestEnv()
	patient := patientActor()
	doctor := env.newDoctorActor()

	a, err := env.svc.Book(context.Background(), patient, doctor.AccountID, "2026-09-10", "09:30")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, _, err := env.svc.Complete(context.Background(), doctor, a.ID, "flu", "rest", ""); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	for _, actor := range []auth.Identity{patient, doctor, {AccountID: uuid.New(), Role: auth.RoleAdmin}} {
		if _, err := env.svc.GetTreatment(context.Background(), actor, a.ID); err != nil {
			t.Errorf("%s should see the treatment: %v", actor.Role, err)
		}
	}

	stranger := patientActor()
	if _, err := env.svc.GetTreatment(context.Background(), stranger, a.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner for unrelated patient, got %v", err)
	}
}

func TestUpcomingForDoctor(t *testing.T) {
	env := newTestEnv()
	doctor := env.newDoctorActor()

	env.svc.now = func() time.Time {
		return time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	}

	book := func(date string) *Appointment {
		a, err := env.svc.Book(context.Background(), patientActor(), doctor.AccountID, date, "09:00")
		if err != nil {
			t.Fatalf("Book(%s) failed: %v", date, err)
		}
		return a
	}

	book("2026-09-10") // today, included
	book("2026-09-16") // day 6, included
	book("2026-09-17") // day 7, excluded
	book("2026-09-09") // past, excluded
	cancelled := book("2026-09-12")
	if _, err := env.svc.Cancel(context.Background(), doctor, cancelled.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	items, err := env.svc.UpcomingForDoctor(context.Background(), doctor.AccountID)
	if err != nil {
		t.Fatalf("UpcomingForDoctor failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 upcoming appointments, got %d", len(items))
	}
	for _, a := range items {
		if a.Status != StatusBooked {
			t.Errorf("upcoming must be Booked, got %q", a.Status)
		}
		if a.Date != "2026-09-10" && a.Date != "2026-09-16" {
			t.Errorf("unexpected date %q", a.Date)
		}
	}
}

func TestPatientsForDoctor(t *testing.T) {
	env := newTestEnv()
	doctor := env.newDoctorActor()
	patient := patientActor()

	if _, err := env.svc.Book(context.Background(), patient, doctor.AccountID, "2026-09-10", "09:00"); err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := env.svc.Book(context.Background(), patient, doctor.AccountID, "2026-09-12", "09:00"); err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := env.svc.Book(context.Background(), patientActor(), doctor.AccountID, "2026-09-11", "09:00"); err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	patients, total, err := env.svc.PatientsForDoctor(context.Background(), doctor.AccountID, 20, 0)
	if err != nil {
		t.Fatalf("PatientsForDoctor failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 distinct patients, got %d", total)
	}
	for _, p := range patients {
		if p.AccountID == patient.AccountID && p.VisitCount != 2 {
			t.Errorf("expected 2 visits for repeat patient, got %d", p.VisitCount)
		}
	}
}

func TestSlotNormalization(t *testing.T) {
	env := newTestEnv()
	doctorID := env.newDoctorID()

	if _, err := env.svc.Book(context.Background(), patientActor(), doctorID, "2026-09-10", "9:05"); err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	// "09:05" is the same slot as "9:05" once normalized.
	if _, err := env.svc.Book(context.Background(), patientActor(), doctorID, "2026-09-10", "09:05"); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken after normalization, got %v", err)
	}
}
