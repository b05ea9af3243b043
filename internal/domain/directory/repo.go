package directory

import (
	"context"

	"github.com/google/uuid"
)

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
	Update(ctx context.Context, d *Department) error
}

// DoctorFilter narrows the browse listing. Zero values match everything.
type DoctorFilter struct {
	DepartmentID uuid.UUID
	Availability string
}

type DoctorRepository interface {
	CreateProfile(ctx context.Context, p *DoctorProfile) error
	GetProfileByAccount(ctx context.Context, accountID uuid.UUID) (*DoctorProfile, error)
	UpdateProfile(ctx context.Context, p *DoctorProfile) error
	GetDoctor(ctx context.Context, accountID uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error)
}
