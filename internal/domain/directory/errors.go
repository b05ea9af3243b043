package directory

import "errors"

var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrDepartmentExists   = errors.New("a department with this name already exists")
	ErrDoctorNotFound     = errors.New("doctor not found")
	ErrProfileExists      = errors.New("doctor already has a profile")
	ErrValidation         = errors.New("invalid directory data")
)
