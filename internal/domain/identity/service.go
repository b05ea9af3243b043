package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

type Service struct {
	accounts AccountRepository
	tokens   *auth.TokenIssuer
	log      zerolog.Logger
}

func NewService(accounts AccountRepository, tokens *auth.TokenIssuer, log zerolog.Logger) *Service {
	return &Service{accounts: accounts, tokens: tokens, log: log}
}

// Register creates a patient account. Self-registration is for patients only;
// doctors are created by an admin through the directory service.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Account, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		Name:         name,
		Email:        email,
		Role:         auth.RolePatient,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Login verifies credentials and returns a signed token plus the account.
// Missing accounts, wrong passwords and deactivated accounts are all reported
// as ErrInvalidCredentials so the response does not leak which one applies.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !a.Active {
		return "", nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(a.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(a.ID, a.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, a, nil
}

// CreateAccount creates an account with the given role. Used by the directory
// service when an admin adds a doctor.
func (s *Service) CreateAccount(ctx context.Context, name, email, password, role string) (*Account, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	if !auth.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *Service) ListByRole(ctx context.Context, role string, limit, offset int) ([]*Account, int, error) {
	return s.accounts.ListByRole(ctx, role, limit, offset)
}

// UpdatePatient applies an admin edit to a patient account: name, email and
// the active flag. Editing a non-patient account through this path is
// rejected.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, name, email string, active bool) (*Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Role != auth.RolePatient {
		return nil, ErrWrongRole
	}

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}

	a.Name = name
	a.Email = email
	a.Active = active
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateOwnProfile lets an account holder change their own name and email.
func (s *Service) UpdateOwnProfile(ctx context.Context, actor auth.Identity, name, email string) (*Account, error) {
	a, err := s.accounts.GetByID(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}

	a.Name = name
	a.Email = email
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Deactivate flips the active flag off for an account of the expected role.
// Deactivation blocks future logins; existing records referencing the account
// are untouched. Already-issued tokens expire on their own TTL.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, expectedRole string) (*Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Role != expectedRole {
		return nil, ErrWrongRole
	}

	a.Active = false
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// EnsureDefaultAdmin seeds the default admin account when no admin exists.
// Safe to run on every startup.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, email, password string) error {
	n, err := s.accounts.CountByRole(ctx, auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	a := &Account{
		Name:         "Hospital Admin",
		Email:        strings.ToLower(email),
		Role:         auth.RoleAdmin,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	s.log.Info().Str("email", a.Email).Msg("default admin account created")
	return nil
}
