package admin

import (
	"context"

	"github.com/hms/hms/internal/domain/directory"
	"github.com/hms/hms/internal/domain/identity"
)

// SearchRepository runs the cross-domain lookups backing the admin search.
type SearchRepository interface {
	// SearchAccounts matches accounts by name or email substring. role
	// narrows the result when non-empty.
	SearchAccounts(ctx context.Context, query, role string, limit, offset int) ([]*identity.Account, int, error)
	// SearchDoctorsByDepartment matches active doctors whose department name
	// contains the query.
	SearchDoctorsByDepartment(ctx context.Context, department string, limit, offset int) ([]*directory.Doctor, int, error)
}
