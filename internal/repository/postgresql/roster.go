package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const rosterColumns = `
	r.id, r.name, r.start_time::text, r.end_time::text,
	r.break_duration_minutes, r.grace_period_minutes, r.early_departure_threshold,
	r.is_active, r.created_at, r.updated_at`

type rosterRepository struct {
	db *database.DB
}

func NewRosterRepository(db *database.DB) roster.RosterRepository {
	return &rosterRepository{db: db}
}

func scanRoster(row pgx.Row) (roster.Roster, error) {
	var (
		r          roster.Roster
		start, end string
	)
	if err := row.Scan(
		&r.ID, &r.Name, &start, &end,
		&r.BreakDurationMinutes, &r.GracePeriodMinutes, &r.EarlyDepartureThreshold,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return roster.Roster{}, err
	}

	var err error
	if r.StartTime, err = roster.ParseWallClock(start); err != nil {
		return roster.Roster{}, err
	}
	if r.EndTime, err = roster.ParseWallClock(end); err != nil {
		return roster.Roster{}, err
	}
	return r, nil
}

// GetByID implements roster.RosterRepository.
func (r *rosterRepository) GetByID(ctx context.Context, id string) (roster.Roster, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + rosterColumns + ` FROM rosters r WHERE r.id = $1`

	found, err := scanRoster(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return roster.Roster{}, roster.ErrRosterNotFound
		}
		return roster.Roster{}, fmt.Errorf("failed to get roster: %w", err)
	}

	return found, nil
}

// GetActiveForEmployee implements roster.RosterRepository.
func (r *rosterRepository) GetActiveForEmployee(ctx context.Context, employeeID string, date time.Time) (roster.Roster, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + rosterColumns + `
		FROM rosters r
		WHERE r.is_active
		  AND r.id = COALESCE(
			(SELECT a.roster_id
			 FROM employee_roster_assignments a
			 WHERE a.employee_id = $1
			   AND $2::date BETWEEN a.start_date AND a.end_date
			 ORDER BY a.created_at DESC
			 LIMIT 1),
			(SELECT e.roster_id FROM employees e WHERE e.id = $1)
		  )
	`

	found, err := scanRoster(q.QueryRow(ctx, query, employeeID, date.Format(dateFormat)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return roster.Roster{}, roster.ErrNoRosterAssigned
		}
		return roster.Roster{}, fmt.Errorf("failed to get active roster: %w", err)
	}

	return found, nil
}
