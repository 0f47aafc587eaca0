package memory

import "errors"

var (
	ErrInvalidSize             = errors.New("size must be a positive integer")
	ErrInvalidProcess          = errors.New("process id is required")
	ErrProcessAlreadyAllocated = errors.New("process already has allocated memory")
	ErrNoSuitableBlock         = errors.New("no suitable free block found")
	ErrProcessNotFound         = errors.New("process not found or had no allocated memory")
	ErrUnknownStrategy         = errors.New("unknown placement strategy")
)
