package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks a caller contract violation; the operation
	// is never retried and state is untouched.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPersistence wraps durable-storage write failures. The triggering
	// operation has been rolled back.
	ErrPersistence = errors.New("persistence failure")
)

// ErrInvalidStatus is the InvalidArgument case for an unrecognized order
// status value.
var ErrInvalidStatus = fmt.Errorf("%w: unrecognized order status", ErrInvalidArgument)
