package models

import "errors"

// Validation sentinels shared by the pure planning packages and the stores.
// All of these are reported to the caller before any mutation begins.
var (
	ErrNameRequired       = errors.New("name is required")
	ErrDuplicateName      = errors.New("name already taken by another entity")
	ErrDuplicateSlug      = errors.New("slug already taken by another entity")
	ErrPositionOutOfRange = errors.New("position out of range")
	ErrNotFound           = errors.New("entity not found")
	ErrRequiredRole       = errors.New("role is required and cannot be deleted or renamed")
	ErrFixedRole          = errors.New("role is fixed and its task bindings cannot be changed")
	ErrInvalidModule      = errors.New("invalid module")
)
