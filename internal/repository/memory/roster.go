package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/roster"
)

type rosterRepository struct {
	store *Store
}

func NewRosterRepository(store *Store) roster.RosterRepository {
	return &rosterRepository{store: store}
}

// GetByID implements roster.RosterRepository.
func (r *rosterRepository) GetByID(ctx context.Context, id string) (roster.Roster, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	found, ok := r.store.rosters[id]
	if !ok {
		return roster.Roster{}, roster.ErrRosterNotFound
	}
	return found, nil
}

// GetActiveForEmployee implements roster.RosterRepository.
func (r *rosterRepository) GetActiveForEmployee(ctx context.Context, employeeID string, date time.Time) (roster.Roster, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := dateKey(date)
	var assigned *roster.Assignment
	for i := range s.assignments {
		a := s.assignments[i]
		if a.EmployeeID != employeeID || key < dateKey(a.StartDate) || key > dateKey(a.EndDate) {
			continue
		}
		if assigned == nil || a.CreatedAt.After(assigned.CreatedAt) {
			assigned = &a
		}
	}

	rosterID := ""
	if assigned != nil {
		rosterID = assigned.RosterID
	} else if e, ok := s.employees[employeeID]; ok && e.RosterID != nil {
		rosterID = *e.RosterID
	}

	found, ok := s.rosters[rosterID]
	if !ok || !found.IsActive {
		return roster.Roster{}, roster.ErrNoRosterAssigned
	}
	return found, nil
}
