// Package auth implements authentication and role-based authorization for the
// hospital scheduling API: bcrypt credential hashing, HMAC-signed JWTs, and
// the route guard that every protected endpoint goes through.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Account roles. Role is fixed at account creation and never changes.
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// Identity is the resolved acting identity of a request. It is extracted from
// a verified token by the middleware and passed explicitly into services;
// there is no ambient current-user state anywhere else.
type Identity struct {
	AccountID uuid.UUID
	Role      string
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity set by the auth middleware.
// The second return is false for unauthenticated requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleDoctor || r == RolePatient
}
