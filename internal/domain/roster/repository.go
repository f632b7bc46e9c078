package roster

import (
	"context"
	"time"
)

type RosterRepository interface {
	// GetByID retrieves a roster regardless of its active flag.
	GetByID(ctx context.Context, id string) (Roster, error)

	// GetActiveForEmployee resolves the roster bound to the employee on date.
	// A dated assignment covering date wins over the employee's default roster.
	// Returns ErrNoRosterAssigned when neither yields an active roster.
	GetActiveForEmployee(ctx context.Context, employeeID string, date time.Time) (Roster, error)
}
