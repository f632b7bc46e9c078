package roster

import (
	"fmt"
	"time"
)

// Roster is the work schedule an employee's attendance is measured against.
type Roster struct {
	ID                      string
	Name                    string
	StartTime               WallClock
	EndTime                 WallClock
	BreakDurationMinutes    int
	GracePeriodMinutes      int
	EarlyDepartureThreshold int // minutes
	IsActive                bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// IsNextDayCheckout reports whether the shift ends on the calendar day after it starts.
func (r Roster) IsNextDayCheckout() bool {
	return r.EndTime.Minutes() <= r.StartTime.Minutes()
}

// StartOn returns the scheduled start of the shift beginning on day.
func (r Roster) StartOn(day time.Time) time.Time {
	return r.StartTime.On(day)
}

// EndOn returns the scheduled end of the shift beginning on day.
func (r Roster) EndOn(day time.Time) time.Time {
	end := r.EndTime.On(day)
	if r.IsNextDayCheckout() {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// Assignment binds an employee to a roster for an inclusive date range,
// overriding the employee's default roster.
type Assignment struct {
	ID         string
	EmployeeID string
	RosterID   string
	StartDate  time.Time
	EndDate    time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WallClock is a time of day without a date, as stored in "HH:MM" form.
type WallClock struct {
	Hour   int
	Minute int
}

func ParseWallClock(s string) (WallClock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		// TIME columns are rendered with seconds
		t, err = time.Parse("15:04:05", s)
		if err != nil {
			return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, s)
		}
	}
	return WallClock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustParseWallClock is like ParseWallClock but panics on malformed input.
func MustParseWallClock(s string) WallClock {
	wc, err := ParseWallClock(s)
	if err != nil {
		panic(err)
	}
	return wc
}

// On anchors the wall-clock time to the calendar day of day, in day's location.
func (w WallClock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), w.Hour, w.Minute, 0, 0, day.Location())
}

// Minutes returns the number of minutes since midnight.
func (w WallClock) Minutes() int {
	return w.Hour*60 + w.Minute
}

func (w WallClock) String() string {
	return fmt.Sprintf("%02d:%02d", w.Hour, w.Minute)
}
