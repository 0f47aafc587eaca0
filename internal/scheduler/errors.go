package scheduler

import "errors"

var (
	ErrDuplicateProcess = errors.New("process already exists")
	ErrInvalidProcess   = errors.New("invalid process")
	ErrInvalidQuantum   = errors.New("quantum must be a positive integer")
	ErrUnknownPolicy    = errors.New("unknown scheduling policy")
	ErrNonMonotonicTick = errors.New("tick out of order")
)
