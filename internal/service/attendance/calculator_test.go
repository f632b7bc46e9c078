package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/roster"
	"github.com/stretchr/testify/assert"
)

var wib = time.FixedZone("WIB", 7*3600)

func clock(hh, mm int) time.Time {
	return time.Date(2025, 3, 10, hh, mm, 0, 0, wib)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func TestLateness(t *testing.T) {
	start := roster.MustParseWallClock("09:00")

	tests := []struct {
		name  string
		now   time.Time
		grace int
		want  int
	}{
		{"late beyond grace", clock(9, 10), 5, 5},
		{"early is never negative", clock(8, 55), 5, 0},
		{"inside grace", clock(9, 4), 5, 0},
		{"exactly at start", clock(9, 0), 0, 0},
		{"partial minute floors", clock(9, 10).Add(59 * time.Second), 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lateness(tt.now, start, tt.grace))
		})
	}
}

func TestEarlyDeparture(t *testing.T) {
	end := roster.MustParseWallClock("17:00")

	assert.Equal(t, 50, EarlyDeparture(clock(16, 0), end, 10))
	assert.Equal(t, 0, EarlyDeparture(clock(16, 55), end, 10))
	assert.Equal(t, 0, EarlyDeparture(clock(17, 30), end, 0))
}

func TestExpectedHours(t *testing.T) {
	assert.Equal(t, 7.0, ExpectedHours(roster.MustParseWallClock("09:00"), roster.MustParseWallClock("17:00"), 60))
	assert.Equal(t, 8.0, ExpectedHours(roster.MustParseWallClock("22:00"), roster.MustParseWallClock("06:00"), 0), "overnight shift")
	assert.Equal(t, 7.5, ExpectedHours(roster.MustParseWallClock("08:00"), roster.MustParseWallClock("16:00"), 30))
	assert.Equal(t, 0.0, ExpectedHours(roster.MustParseWallClock("09:00"), roster.MustParseWallClock("09:30"), 60))
}

func TestActualHours(t *testing.T) {
	open := attendance.Record{FirstCheckIn: ptr(clock(9, 0))}
	assert.Equal(t, 3.0, ActualHours(open, clock(12, 0), 0))

	twoSessions := attendance.Record{
		FirstCheckIn:   ptr(clock(9, 0)),
		FirstCheckOut:  ptr(clock(12, 0)),
		SecondCheckIn:  ptr(clock(13, 0)),
		SecondCheckOut: ptr(clock(17, 0)),
	}
	assert.Equal(t, 7.0, ActualHours(twoSessions, clock(20, 0), 0))

	assert.Equal(t, 7.0, ActualHours(attendance.Record{FirstCheckIn: ptr(clock(9, 0)), FirstCheckOut: ptr(clock(17, 0))}, clock(20, 0), 60))
	assert.Equal(t, 0.0, ActualHours(attendance.Record{}, clock(12, 0), 0))
	assert.Equal(t, 0.33, ActualHours(open, clock(9, 20), 0))
}

func TestBreakDuration(t *testing.T) {
	assert.Equal(t, 45, BreakDuration(attendance.Record{FirstCheckOut: ptr(clock(12, 0)), SecondCheckIn: ptr(clock(12, 45))}))
	assert.Equal(t, 0, BreakDuration(attendance.Record{FirstCheckOut: ptr(clock(12, 0))}))
}

func TestComplianceRate(t *testing.T) {
	assert.Equal(t, 50.0, ComplianceRate(3.5, 7))
	assert.Equal(t, 100.0, ComplianceRate(9, 7), "capped")
	assert.Equal(t, 0.0, ComplianceRate(3, 0))
	assert.Equal(t, 33.3, ComplianceRate(1, 3))
}

func TestProject(t *testing.T) {
	r := roster.Roster{
		ID:                      "roster-day",
		StartTime:               roster.MustParseWallClock("09:00"),
		EndTime:                 roster.MustParseWallClock("17:00"),
		BreakDurationMinutes:    60,
		GracePeriodMinutes:      5,
		EarlyDepartureThreshold: 10,
		IsActive:                true,
	}
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, wib)

	t.Run("open first session", func(t *testing.T) {
		rec := attendance.Record{FirstCheckIn: ptr(clock(9, 20).UTC())}
		Project(&rec, r, day, clock(11, 20))

		assert.Equal(t, "roster-day", rec.RosterID)
		assert.Equal(t, attendance.StatusCheckedIn, rec.Status)
		assert.Equal(t, 15, rec.MinutesLate)
		assert.Equal(t, 0, rec.EarlyDepartureMinutes)
		assert.Equal(t, 7.0, rec.ExpectedHours)
		assert.Equal(t, 1.0, rec.ActualHours)
	})

	t.Run("on break", func(t *testing.T) {
		rec := attendance.Record{FirstCheckIn: ptr(clock(9, 0)), FirstCheckOut: ptr(clock(12, 0))}
		Project(&rec, r, day, clock(12, 0))

		assert.Equal(t, attendance.StatusOnBreak, rec.Status)
		assert.Equal(t, 0, rec.EarlyDepartureMinutes)
		assert.Equal(t, 0, rec.MinutesLate)
	})

	t.Run("completed two sessions", func(t *testing.T) {
		rec := attendance.Record{
			FirstCheckIn:   ptr(clock(9, 0)),
			FirstCheckOut:  ptr(clock(12, 0)),
			SecondCheckIn:  ptr(clock(13, 0)),
			SecondCheckOut: ptr(clock(16, 30)),
		}
		Project(&rec, r, day, clock(16, 30))

		assert.Equal(t, attendance.StatusCompleted, rec.Status)
		assert.Equal(t, 0, rec.MinutesLate)
		assert.Equal(t, 20, rec.EarlyDepartureMinutes)
		assert.Equal(t, 60, rec.BreakDurationMinutes)
		assert.Equal(t, 6.5, rec.ActualHours, "break already excluded by the session gap")
	})
}
