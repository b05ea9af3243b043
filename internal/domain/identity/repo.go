package identity

import (
	"context"

	"github.com/google/uuid"
)

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Update(ctx context.Context, a *Account) error
	ListByRole(ctx context.Context, role string, limit, offset int) ([]*Account, int, error)
	CountByRole(ctx context.Context, role string) (int, error)
}
