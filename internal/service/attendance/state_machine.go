package attendance

import (
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
)

// CurrentState maps the set timestamps of record to a sequence state.
// A nil record means nothing has been recorded for the day.
func CurrentState(record *attendance.Record) attendance.State {
	if record == nil {
		return attendance.StateNotStarted
	}
	switch {
	case record.SecondCheckOut != nil:
		return attendance.StateSecondCheckedOut
	case record.SecondCheckIn != nil:
		return attendance.StateSecondCheckedIn
	case record.FirstCheckOut != nil:
		return attendance.StateFirstCheckedOut
	case record.FirstCheckIn != nil:
		return attendance.StateFirstCheckedIn
	}
	return attendance.StateNotStarted
}

// NextAction returns the action the next scan performs. A finished day yields
// ActionCompleted together with ErrAttendanceAlreadyComplete.
func NextAction(record *attendance.Record) (attendance.Action, error) {
	switch CurrentState(record) {
	case attendance.StateNotStarted:
		return attendance.ActionFirstCheckIn, nil
	case attendance.StateFirstCheckedIn:
		return attendance.ActionFirstCheckOut, nil
	case attendance.StateFirstCheckedOut:
		return attendance.ActionSecondCheckIn, nil
	case attendance.StateSecondCheckedIn:
		return attendance.ActionSecondCheckOut, nil
	}
	return attendance.ActionCompleted, attendance.ErrAttendanceAlreadyComplete
}

// ValidateAction checks that action is the one the sequence expects next.
// An action that skips ahead is a sequence error; one already taken is a duplicate.
func ValidateAction(record *attendance.Record, action attendance.Action) error {
	next, err := NextAction(record)
	if err != nil {
		return err
	}
	if action == next {
		return nil
	}
	if actionIndex(action) > actionIndex(next) {
		return attendance.SequenceErrorFor(action)
	}
	return attendance.ErrDuplicateAttendanceForDay
}

// Transition returns the record produced by applying action at the given time.
// isNew is true when the result must be inserted rather than updated: the first
// check-in of the day, and the second check-in which opens a linked
// second-session record carrying the first session's timestamps.
// record is never modified.
func Transition(employeeID string, record *attendance.Record, action attendance.Action, at, day time.Time) (next attendance.Record, isNew bool, err error) {
	if err := ValidateAction(record, action); err != nil {
		return attendance.Record{}, false, err
	}

	if idx := actionIndex(action); idx > 0 && record != nil {
		if prev := record.Timestamp(attendance.SessionActions[idx-1]); prev != nil && !at.After(*prev) {
			return attendance.Record{}, false, attendance.SequenceErrorFor(action)
		}
	}

	switch {
	case record == nil:
		next = attendance.Record{
			EmployeeID: employeeID,
			Date:       day,
		}
		isNew = true
	case action == attendance.ActionSecondCheckIn:
		previousID := record.ID
		first := record.Clone()
		next = attendance.Record{
			EmployeeID:        record.EmployeeID,
			RosterID:          record.RosterID,
			Date:              record.Date,
			FirstCheckIn:      first.FirstCheckIn,
			FirstCheckOut:     first.FirstCheckOut,
			IsSecondSession:   true,
			PreviousSessionID: &previousID,
		}
		isNew = true
	default:
		next = record.Clone()
	}

	next.SetTimestamp(action, at)
	lastAction := at
	next.LastAction = &lastAction

	return next, isNew, nil
}

func actionIndex(action attendance.Action) int {
	for i, a := range attendance.SessionActions {
		if a == action {
			return i
		}
	}
	return len(attendance.SessionActions)
}
