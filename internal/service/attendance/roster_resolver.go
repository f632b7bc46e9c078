package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/roster"
)

// RosterResolver finds the roster an employee's day is measured against.
type RosterResolver struct {
	repo roster.RosterRepository
}

func NewRosterResolver(repo roster.RosterRepository) *RosterResolver {
	return &RosterResolver{repo: repo}
}

// ResolveActiveRoster returns the active roster for employeeID on day.
// A missing or inactive roster is ErrNoRosterAssigned; store failures are
// reported as persistence errors.
func (r *RosterResolver) ResolveActiveRoster(ctx context.Context, employeeID string, day time.Time) (roster.Roster, error) {
	active, err := r.repo.GetActiveForEmployee(ctx, employeeID, day)
	if err != nil {
		if errors.Is(err, roster.ErrNoRosterAssigned) {
			return roster.Roster{}, roster.ErrNoRosterAssigned
		}
		return roster.Roster{}, attendance.NewPersistenceError(fmt.Errorf("failed to resolve roster: %w", err))
	}
	if !active.IsActive {
		return roster.Roster{}, roster.ErrNoRosterAssigned
	}
	return active, nil
}

// RosterByID loads a roster for re-projecting a stored record.
func (r *RosterResolver) RosterByID(ctx context.Context, id string) (roster.Roster, error) {
	found, err := r.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, roster.ErrRosterNotFound) {
			return roster.Roster{}, err
		}
		return roster.Roster{}, attendance.NewPersistenceError(fmt.Errorf("failed to get roster: %w", err))
	}
	return found, nil
}
