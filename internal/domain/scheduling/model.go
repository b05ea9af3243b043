// Package scheduling manages appointments: booking with slot conflict
// detection, rescheduling, cancellation, and completion with treatment
// records.
package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusBooked    = "Booked"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment holds a slot on a doctor's calendar. Date and Time are kept as
// wire-format strings and cast at the SQL boundary.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date      string    `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Treatment records the outcome of a completed appointment. Write-once: it is
// created together with the completion and never updated or deleted.
type Treatment struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis"`
	Prescription  string    `db:"prescription" json:"prescription"`
	Notes         string    `db:"notes" json:"notes"`
}

// PatientSummary is one row of a doctor's distinct-patients listing.
type PatientSummary struct {
	AccountID  uuid.UUID `json:"account_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	LastVisit  string    `json:"last_visit"`
	VisitCount int       `json:"visit_count"`
}
