package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/config"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
)

// UniquenessGuard picks the timestamp an event is written with. It keeps a
// minimum gap between a check-in and the following check-out (and vice versa)
// and steps past instants already taken by the same kind of event.
type UniquenessGuard struct {
	repo        attendance.AttendanceRepository
	loc         *time.Location
	minGap      time.Duration
	offset      time.Duration
	maxAttempts int
}

func NewUniquenessGuard(repo attendance.AttendanceRepository, cfg config.AttendanceConfig, loc *time.Location) *UniquenessGuard {
	if loc == nil {
		loc = time.UTC
	}
	return &UniquenessGuard{
		repo:        repo,
		loc:         loc,
		minGap:      cfg.MinSessionGap,
		offset:      cfg.CollisionOffset,
		maxAttempts: cfg.MaxTimestampAttempts,
	}
}

// Reserve returns a second-precision timestamp at or after base that no other
// event of kind for the employee uses. The store's unique constraints still
// arbitrate concurrent writers.
func (g *UniquenessGuard) Reserve(ctx context.Context, employeeID string, base time.Time, kind attendance.EventKind) (time.Time, error) {
	candidate := base.Truncate(time.Second).UTC()

	current, err := g.repo.GetCurrentForDay(ctx, employeeID, LocalDay(base, g.loc))
	if err != nil {
		return time.Time{}, attendance.NewPersistenceError(fmt.Errorf("failed to load current record: %w", err))
	}

	if current != nil {
		if latest, ts := current.LatestEvent(); ts != nil && latest.Kind() != kind {
			if earliest := ts.Add(g.minGap).UTC(); candidate.Before(earliest) {
				slog.DebugContext(ctx, "Attendance timestamp moved to session gap",
					"employee_id", employeeID, "kind", kind, "from", candidate, "to", earliest)
				candidate = earliest
			}
		}
	}

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		taken, err := g.repo.ExistsEventAt(ctx, employeeID, kind, candidate)
		if err != nil {
			return time.Time{}, attendance.NewPersistenceError(fmt.Errorf("failed to probe timestamp: %w", err))
		}
		if !taken {
			return candidate, nil
		}
		candidate = candidate.Add(g.offset)
	}

	slog.WarnContext(ctx, "Attendance timestamp attempts exhausted",
		"employee_id", employeeID, "kind", kind, "attempts", g.maxAttempts)
	return time.Time{}, attendance.ErrTimestampGenerationFailed
}

// LocalDay returns midnight of t's calendar day in loc.
func LocalDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// dayIn reads the Y-M-D of a stored date as a day in loc, without shifting it.
func dayIn(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
}
