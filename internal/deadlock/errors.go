package deadlock

import "errors"

var (
	ErrEmptyID               = errors.New("id is required")
	ErrDuplicateProcess      = errors.New("process already exists")
	ErrUnknownProcess        = errors.New("process does not exist")
	ErrUnknownResource       = errors.New("resource does not exist")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrInsufficientInstances = errors.New("not enough available instances")
	ErrExceedsHeld           = errors.New("release exceeds held instances")
	ErrStillReferenced       = errors.New("still held or requested")
)
