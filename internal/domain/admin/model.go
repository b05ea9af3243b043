// Package admin provides the administrator dashboard: headline counts and
// cross-domain search over accounts and doctors.
package admin

// DashboardStats are the headline counts shown on the admin dashboard.
type DashboardStats struct {
	Doctors      int `json:"doctors"`
	Patients     int `json:"patients"`
	Appointments int `json:"appointments"`
}
