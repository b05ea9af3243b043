package scheduling

import "errors"

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrSlotTaken         = errors.New("the doctor already has a booking at this slot")
	ErrNotOwner          = errors.New("appointment belongs to a different account")
	ErrNotBooked         = errors.New("appointment is not in Booked status")
	ErrAlreadyCompleted  = errors.New("appointment is already completed")
	ErrAlreadyCancelled  = errors.New("appointment is already cancelled")
	ErrTreatmentNotFound = errors.New("treatment not found")
	ErrValidation        = errors.New("invalid appointment data")
)
