package index

import (
	"errors"
	"fmt"
)

// Build errors. Mirrors the teacher's internal/storage/errors.go style: a
// flat var block of errors.New sentinels plus payload-carrying struct
// types for cases callers need to inspect.
var (
	// ErrOutOfMemory names an allocation failure during build. No code
	// path in this module returns it: Build reports only driver failures.
	ErrOutOfMemory = errors.New("likeidx: out of memory during build")

	// ErrIndexNotBuilt is returned by query operations when no index has
	// been published yet.
	ErrIndexNotBuilt = errors.New("likeidx: index not built")

	// ErrCancelled names a query aborted by the host. The evaluator has no
	// cancellation check, so no code path in this module returns it.
	ErrCancelled = errors.New("likeidx: query cancelled")
)

// DriverFailedError wraps the error returned by the source iterator
// during build. The build is discarded; the prior index is left
// unchanged.
type DriverFailedError struct {
	Cause error
}

func (e *DriverFailedError) Error() string {
	return fmt.Sprintf("likeidx: driver scan failed: %v", e.Cause)
}

func (e *DriverFailedError) Unwrap() error { return e.Cause }

// NewDriverFailedError wraps a driver-originated error for a failed build.
func NewDriverFailedError(cause error) error {
	return &DriverFailedError{Cause: cause}
}

// PatternTooLongError is returned when a pattern's required non-'%'
// length exceeds MaxPositions.
type PatternTooLongError struct {
	MinLength int
	Max       int
}

func (e *PatternTooLongError) Error() string {
	return fmt.Sprintf("likeidx: pattern requires %d literal bytes, exceeds MAX_POSITIONS=%d", e.MinLength, e.Max)
}
