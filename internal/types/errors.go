package types

import "errors"

// Sentinel errors for the service layer. Handlers translate these to HTTP
// status codes with errors.Is; repositories and services wrap them with
// context via fmt.Errorf("...: %w", ...).
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or version conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
)
