package services

import "errors"

// Common service errors. UI code matches on these with errors.Is to decide
// between a status-line notice and a hard failure.
var (
	// ErrInvalidInput indicates an empty or malformed argument from the caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the requested row, message, or session is gone.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState indicates an operation that the current compose status
	// does not permit.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrProcess indicates an external command failed to run or exited
	// non-zero.
	ErrProcess = errors.New("external process failed")

	// ErrTimeout indicates the bounded wait on an external command elapsed.
	ErrTimeout = errors.New("operation timed out")

	// ErrAttachmentRead indicates a declared attachment file could not be
	// read while assembling an outgoing message. The attachment is skipped
	// and the send continues without it.
	ErrAttachmentRead = errors.New("attachment not readable")
)

// IsTransient reports whether the error is worth retrying as-is.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrProcess)
}
