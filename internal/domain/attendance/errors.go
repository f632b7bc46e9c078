package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Scan errors
	ErrAttendanceAlreadyComplete = errors.New("attendance for today is already complete")
	ErrInvalidCheckSequence      = errors.New("invalid check-in/check-out sequence")
	ErrDuplicateAttendanceForDay = errors.New("attendance event already recorded for this day")
	ErrTimestampGenerationFailed = errors.New("could not reserve a unique attendance timestamp")
	ErrPersistenceFailure        = errors.New("attendance could not be saved")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrInvalidQRPayload   = errors.New("QR code does not identify an employee")
)

type SequenceKind string

const (
	SequenceCheckOutBeforeCheckIn             SequenceKind = "check_out_before_check_in"
	SequenceSecondCheckInBeforeFirstCheckOut  SequenceKind = "second_check_in_before_first_check_out"
	SequenceSecondCheckOutBeforeSecondCheckIn SequenceKind = "second_check_out_before_second_check_in"
)

// SequenceError is an InvalidCheckSequence failure with its sub-kind.
type SequenceError struct {
	Kind SequenceKind
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidCheckSequence.Error(), e.Kind)
}

func (e *SequenceError) Is(target error) bool {
	return target == ErrInvalidCheckSequence
}

// SequenceErrorFor returns the sequence error raised when action comes too early.
func SequenceErrorFor(action Action) *SequenceError {
	switch action {
	case ActionSecondCheckIn:
		return &SequenceError{Kind: SequenceSecondCheckInBeforeFirstCheckOut}
	case ActionSecondCheckOut:
		return &SequenceError{Kind: SequenceSecondCheckOutBeforeSecondCheckIn}
	default:
		return &SequenceError{Kind: SequenceCheckOutBeforeCheckIn}
	}
}

// PersistenceError wraps a store failure that is neither a uniqueness nor a sequence conflict.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPersistenceFailure.Error(), e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailure
}

// NewPersistenceError keeps err as the cause and its text as the message.
func NewPersistenceError(err error) *PersistenceError {
	return &PersistenceError{Message: err.Error(), Err: err}
}
