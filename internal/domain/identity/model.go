// Package identity manages accounts: registration, login, admin account
// administration, and the idempotent default-admin seed.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Account maps to the account table. Role is fixed at creation; accounts are
// deactivated, never deleted.
type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Role         string    `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
