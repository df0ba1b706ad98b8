package errs

import (
	"errors"
	"fmt"
)

// NotFoundError indicates that a referenced record does not exist.
// Analysis tasks that hit it fail permanently; there is nothing to retry.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

// DataError indicates that the pipeline produced no usable signal:
// insufficient samples, NaN in filtered output, an empty metrics table or
// an unparsable narrative response. Fatal for the current run.
type DataError struct {
	Msg string
	Err error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DataError) Unwrap() error { return e.Err }

// NewDataError wraps err (which may be nil) with a pipeline-stage message.
func NewDataError(msg string, err error) *DataError {
	return &DataError{Msg: msg, Err: err}
}

// TransportError indicates a failed transfer to or from external asset
// storage. Fatal for the current run.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StateError indicates a job submission that is invalid for the session's
// current analysis status. Rejected synchronously; no state change.
type StateError struct {
	Status string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("gait analysis has already been started for this session (status %s)", e.Status)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsState reports whether err is a StateError.
func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
