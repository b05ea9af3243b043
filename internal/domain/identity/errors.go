package identity

import "errors"

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongRole          = errors.New("account has a different role")
	ErrValidation         = errors.New("invalid account data")
)
