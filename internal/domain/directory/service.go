package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/auth"
)

// TxRunner executes fn inside a database transaction. Repository calls made
// with the context fn receives run on that transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	departments DepartmentRepository
	doctors     DoctorRepository
	identity    *identity.Service
	runTx       TxRunner
	log         zerolog.Logger
}

func NewService(departments DepartmentRepository, doctors DoctorRepository, ident *identity.Service, runTx TxRunner, log zerolog.Logger) *Service {
	return &Service{
		departments: departments,
		doctors:     doctors,
		identity:    ident,
		runTx:       runTx,
		log:         log,
	}
}

func (s *Service) CreateDepartment(ctx context.Context, name, description string) (*Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: department name is required", ErrValidation)
	}
	d := &Department{Name: name, Description: strings.TrimSpace(description)}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	return s.departments.List(ctx)
}

func (s *Service) UpdateDepartment(ctx context.Context, id uuid.UUID, name, description string) (*Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: department name is required", ErrValidation)
	}
	d := &Department{ID: id, Name: name, Description: strings.TrimSpace(description)}
	if err := s.departments.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// AddDoctor creates the doctor account and its profile in one transaction so
// a failed profile insert never leaves an orphaned account behind.
func (s *Service) AddDoctor(ctx context.Context, name, email, password string, departmentID uuid.UUID, availability string) (*Doctor, error) {
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}

	var accountID uuid.UUID
	err := s.runTx(ctx, func(ctx context.Context) error {
		a, err := s.identity.CreateAccount(ctx, name, email, password, auth.RoleDoctor)
		if err != nil {
			return err
		}
		accountID = a.ID
		return s.doctors.CreateProfile(ctx, &DoctorProfile{
			AccountID:    a.ID,
			DepartmentID: departmentID,
			Availability: strings.TrimSpace(availability),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", accountID.String()).Msg("doctor added")
	return s.doctors.GetDoctor(ctx, accountID)
}

// UpdateDoctor applies an admin edit: account name/email plus the profile's
// department and availability, atomically.
func (s *Service) UpdateDoctor(ctx context.Context, accountID uuid.UUID, name, email string, departmentID uuid.UUID, availability string) (*Doctor, error) {
	if _, err := s.doctors.GetProfileByAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}

	err := s.runTx(ctx, func(ctx context.Context) error {
		a, err := s.identity.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if _, err := s.identity.UpdateOwnProfile(ctx, auth.Identity{AccountID: a.ID, Role: a.Role}, name, email); err != nil {
			return err
		}
		return s.doctors.UpdateProfile(ctx, &DoctorProfile{
			AccountID:    accountID,
			DepartmentID: departmentID,
			Availability: strings.TrimSpace(availability),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.doctors.GetDoctor(ctx, accountID)
}

// SetAvailability lets a doctor update their own availability text.
func (s *Service) SetAvailability(ctx context.Context, actor auth.Identity, availability string) (*DoctorProfile, error) {
	p, err := s.doctors.GetProfileByAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}
	p.Availability = strings.TrimSpace(availability)
	if err := s.doctors.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetDoctor(ctx context.Context, accountID uuid.UUID) (*Doctor, error) {
	return s.doctors.GetDoctor(ctx, accountID)
}

// ActiveDoctor reports whether accountID refers to a doctor with a profile
// and an active account. Booking validates its target doctor through this.
func (s *Service) ActiveDoctor(ctx context.Context, accountID uuid.UUID) (bool, error) {
	d, err := s.doctors.GetDoctor(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return false, nil
		}
		return false, err
	}
	return d.Active, nil
}

// BrowseDoctors lists active doctors, optionally narrowed by department and
// an availability substring match.
func (s *Service) BrowseDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.ListDoctors(ctx, f, limit, offset)
}

// RemoveDoctor deactivates the doctor's account. The profile and past
// appointments stay in place.
func (s *Service) RemoveDoctor(ctx context.Context, accountID uuid.UUID) error {
	if _, err := s.doctors.GetProfileByAccount(ctx, accountID); err != nil {
		return err
	}
	_, err := s.identity.Deactivate(ctx, accountID, auth.RoleDoctor)
	return err
}
