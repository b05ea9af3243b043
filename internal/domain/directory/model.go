// Package directory manages the hospital directory: departments, doctor
// profiles and the patient-facing doctor browse.
package directory

import "github.com/google/uuid"

type Department struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
}

// DoctorProfile links a doctor account to a department and carries the
// free-text availability the doctor maintains (for example "Mon-Fri 09:00-13:00").
type DoctorProfile struct {
	ID           uuid.UUID `db:"id" json:"id"`
	AccountID    uuid.UUID `db:"account_id" json:"account_id"`
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
	Availability string    `db:"availability" json:"availability"`
}

// Doctor is the joined browse view: account fields plus profile and
// department name. Only active accounts appear in listings.
type Doctor struct {
	AccountID      uuid.UUID `json:"account_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Active         bool      `json:"active"`
	DepartmentID   uuid.UUID `json:"department_id"`
	DepartmentName string    `json:"department_name"`
	Availability   string    `json:"availability"`
}
