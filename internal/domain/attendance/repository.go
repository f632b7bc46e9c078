package attendance

import (
	"context"
	"time"
)

// AttendanceRepository is the record store contract the recorder depends on.
// Implementations must enforce uniqueness per (employee_id, date) for primary and
// second-session records and reject out-of-order timestamps, reporting violations
// as ErrDuplicateAttendanceForDay and *SequenceError respectively.
type AttendanceRepository interface {
	// Create inserts a new record. The ID is assigned by the caller.
	Create(ctx context.Context, record Record) (Record, error)

	// ApplyTransition persists the field written by action together with the derived
	// fields. The write only succeeds while that field is still NULL in the store;
	// otherwise ErrDuplicateAttendanceForDay is returned.
	ApplyTransition(ctx context.Context, record Record, action Action) (Record, error)

	// GetByID retrieves a record with the employee name joined in
	GetByID(ctx context.Context, id string) (Record, error)

	// GetCurrentForDay returns the employee's latest record for date, preferring the
	// second-session record. Returns nil, nil when there is none.
	GetCurrentForDay(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	// ExistsEventAt reports whether any of the kind's timestamp columns of the
	// employee's records equals at.
	ExistsEventAt(ctx context.Context, employeeID string, kind EventKind, at time.Time) (bool, error)

	// ListByDate returns every record of date, used by the summary aggregator.
	ListByDate(ctx context.Context, date time.Time) ([]Record, error)

	// List retrieves records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter) ([]Record, int64, error)

	// Delete removes a record. Returns ErrAttendanceNotFound when it does not exist.
	Delete(ctx context.Context, id string) error
}
