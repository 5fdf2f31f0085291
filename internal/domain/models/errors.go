package models

import "errors"

// Error taxonomy shared by all services. The HTTP boundary matches these
// with errors.Is and maps them to status codes; storage and services wrap
// them with operation context.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("already exists")
	ErrAuthentication = errors.New("invalid credentials")
	ErrAuthorization  = errors.New("not allowed")
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("invalid state transition")
)
