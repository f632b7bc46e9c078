package attendance

import (
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/roster"
	"github.com/shopspring/decimal"
)

// Minute values are floored from whole seconds. Stored minutes_late and
// early_departure_minutes were produced with this policy, do not switch to rounding.

// maxComplianceRate caps actual/expected so overtime does not inflate dashboard scores.
const maxComplianceRate = 100.0

// Lateness returns how many minutes now falls after rosterStart on the same
// calendar day, minus the grace period, never negative.
func Lateness(now time.Time, rosterStart roster.WallClock, graceMinutes int) int {
	return latenessSince(now, rosterStart.On(now), graceMinutes)
}

// EarlyDeparture returns how many minutes now falls before rosterEnd on the same
// calendar day, minus the threshold, never negative.
func EarlyDeparture(now time.Time, rosterEnd roster.WallClock, thresholdMinutes int) int {
	return earlyDepartureUntil(now, rosterEnd.On(now), thresholdMinutes)
}

// ExpectedHours is the scheduled shift length minus the break, in hours.
// An end at or before the start is read as ending the next day.
func ExpectedHours(rosterStart, rosterEnd roster.WallClock, breakMinutes int) float64 {
	minutes := rosterEnd.Minutes() - rosterStart.Minutes()
	if minutes <= 0 {
		minutes += 24 * 60
	}
	minutes -= breakMinutes
	if minutes <= 0 {
		return 0
	}
	return roundHours(float64(minutes) / 60)
}

// ActualHours sums every closed session plus the open one up to now, minus the
// unpaid break, in hours. Each session is counted once.
func ActualHours(record attendance.Record, now time.Time, breakMinutes int) float64 {
	seconds := sessionSeconds(record.FirstCheckIn, record.FirstCheckOut, now) +
		sessionSeconds(record.SecondCheckIn, record.SecondCheckOut, now)

	seconds -= int64(breakMinutes) * 60
	if seconds <= 0 {
		return 0
	}
	return roundHours(float64(seconds) / 3600)
}

// BreakDuration is the gap between the first check-out and the second check-in.
func BreakDuration(record attendance.Record) int {
	if record.FirstCheckOut == nil || record.SecondCheckIn == nil {
		return 0
	}
	return floorMinutes(record.SecondCheckIn.Sub(*record.FirstCheckOut))
}

// ComplianceRate is actual/expected as a percentage, one decimal, capped at 100.
func ComplianceRate(actualHours, expectedHours float64) float64 {
	if expectedHours <= 0 || actualHours <= 0 {
		return 0
	}
	rate := decimal.NewFromFloat(actualHours).
		Div(decimal.NewFromFloat(expectedHours)).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		InexactFloat64()
	if rate > maxComplianceRate {
		return maxComplianceRate
	}
	return rate
}

// StatusOf derives the stored status from which timestamps are set.
func StatusOf(record attendance.Record) attendance.Status {
	switch {
	case record.SecondCheckOut != nil:
		return attendance.StatusCompleted
	case record.SecondCheckIn != nil:
		return attendance.StatusCheckedIn
	case record.FirstCheckOut != nil:
		return attendance.StatusOnBreak
	case record.FirstCheckIn != nil:
		return attendance.StatusCheckedIn
	}
	return ""
}

// Project recomputes every derived field of record from its timestamps and the
// roster. day is the record's calendar day in the service location.
func Project(record *attendance.Record, r roster.Roster, day, now time.Time) {
	record.RosterID = r.ID
	record.Status = StatusOf(*record)

	record.MinutesLate = 0
	if record.FirstCheckIn != nil {
		record.MinutesLate = latenessSince(record.FirstCheckIn.In(day.Location()), r.StartOn(day), r.GracePeriodMinutes)
	}

	// A first-session check-out only starts the break; departure is the final check-out.
	record.EarlyDepartureMinutes = 0
	if lastOut := lastCheckOut(*record); lastOut != nil && record.Status == attendance.StatusCompleted {
		record.EarlyDepartureMinutes = earlyDepartureUntil(lastOut.In(day.Location()), r.EndOn(day), r.EarlyDepartureThreshold)
	}

	record.BreakDurationMinutes = BreakDuration(*record)
	record.ExpectedHours = ExpectedHours(r.StartTime, r.EndTime, r.BreakDurationMinutes)

	// Once a second session exists the break is already excluded by the gap between sessions.
	unpaidBreak := r.BreakDurationMinutes
	if record.SecondCheckIn != nil {
		unpaidBreak = 0
	}
	record.ActualHours = ActualHours(*record, now, unpaidBreak)
}

func latenessSince(now, start time.Time, graceMinutes int) int {
	late := floorMinutes(now.Sub(start)) - graceMinutes
	if late < 0 {
		return 0
	}
	return late
}

func earlyDepartureUntil(now, end time.Time, thresholdMinutes int) int {
	early := floorMinutes(end.Sub(now)) - thresholdMinutes
	if early < 0 {
		return 0
	}
	return early
}

func lastCheckOut(record attendance.Record) *time.Time {
	if record.SecondCheckOut != nil {
		return record.SecondCheckOut
	}
	return record.FirstCheckOut
}

func sessionSeconds(in, out *time.Time, now time.Time) int64 {
	if in == nil {
		return 0
	}
	end := now
	if out != nil {
		end = *out
	}
	seconds := wholeSeconds(end.Sub(*in))
	if seconds < 0 {
		return 0
	}
	return seconds
}

func wholeSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// floorMinutes floors toward negative infinity so 59s early is -1 minute, not 0.
func floorMinutes(d time.Duration) int {
	seconds := wholeSeconds(d)
	minutes := seconds / 60
	if seconds < 0 && seconds%60 != 0 {
		minutes--
	}
	return int(minutes)
}

func roundHours(hours float64) float64 {
	return decimal.NewFromFloat(hours).Round(2).InexactFloat64()
}
