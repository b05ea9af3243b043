package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/hms/hms/internal/domain/directory"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/auth"
)

type Service struct {
	search       SearchRepository
	accounts     identity.AccountRepository
	appointments scheduling.AppointmentRepository
}

func NewService(search SearchRepository, accounts identity.AccountRepository, appointments scheduling.AppointmentRepository) *Service {
	return &Service{search: search, accounts: accounts, appointments: appointments}
}

func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	doctors, err := s.accounts.CountByRole(ctx, auth.RoleDoctor)
	if err != nil {
		return nil, fmt.Errorf("count doctors: %w", err)
	}
	patients, err := s.accounts.CountByRole(ctx, auth.RolePatient)
	if err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}
	appointments, err := s.appointments.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	return &DashboardStats{
		Doctors:      doctors,
		Patients:     patients,
		Appointments: appointments,
	}, nil
}

func (s *Service) SearchAccounts(ctx context.Context, query, role string, limit, offset int) ([]*identity.Account, int, error) {
	query = strings.TrimSpace(query)
	if role != "" && !auth.ValidRole(role) {
		return nil, 0, fmt.Errorf("%w: unknown role %q", identity.ErrValidation, role)
	}
	return s.search.SearchAccounts(ctx, query, role, limit, offset)
}

func (s *Service) SearchDoctors(ctx context.Context, department string, limit, offset int) ([]*directory.Doctor, int, error) {
	return s.search.SearchDoctorsByDepartment(ctx, strings.TrimSpace(department), limit, offset)
}
