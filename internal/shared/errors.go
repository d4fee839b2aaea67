package shared

import "errors"

var (
	// ErrNotFound indicates the referenced entity does not exist or is inactive.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate unique key.
	ErrConflict = errors.New("already exists")
	// ErrInsufficientStock indicates the requested quantity exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidState indicates an operation against an entity in an incompatible state.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation indicates malformed input rejected before business logic.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates a role-gated operation attempted without the role.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
