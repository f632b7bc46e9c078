package attendance

import (
	"time"
)

// Record is one employee's attendance for one calendar day. A second session
// may be stored as its own Record linked through PreviousSessionID.
type Record struct {
	ID         string
	EmployeeID string
	RosterID   string
	Date       time.Time

	FirstCheckIn   *time.Time
	FirstCheckOut  *time.Time
	SecondCheckIn  *time.Time
	SecondCheckOut *time.Time

	// Derived, recomputed on every write
	Status                Status
	MinutesLate           int
	EarlyDepartureMinutes int
	BreakDurationMinutes  int
	ExpectedHours         float64
	ActualHours           float64

	IsSecondSession   bool
	PreviousSessionID *string
	LastAction        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// DTO
	EmployeeName *string
}

// Clone returns a deep copy so transitions never mutate the caller's record.
func (r Record) Clone() Record {
	c := r
	c.FirstCheckIn = cloneTime(r.FirstCheckIn)
	c.FirstCheckOut = cloneTime(r.FirstCheckOut)
	c.SecondCheckIn = cloneTime(r.SecondCheckIn)
	c.SecondCheckOut = cloneTime(r.SecondCheckOut)
	c.LastAction = cloneTime(r.LastAction)
	if r.PreviousSessionID != nil {
		id := *r.PreviousSessionID
		c.PreviousSessionID = &id
	}
	if r.EmployeeName != nil {
		name := *r.EmployeeName
		c.EmployeeName = &name
	}
	return c
}

// Timestamp returns the field written by action.
func (r Record) Timestamp(action Action) *time.Time {
	switch action {
	case ActionFirstCheckIn:
		return r.FirstCheckIn
	case ActionFirstCheckOut:
		return r.FirstCheckOut
	case ActionSecondCheckIn:
		return r.SecondCheckIn
	case ActionSecondCheckOut:
		return r.SecondCheckOut
	}
	return nil
}

// SetTimestamp writes the field owned by action.
func (r *Record) SetTimestamp(action Action, t time.Time) {
	switch action {
	case ActionFirstCheckIn:
		r.FirstCheckIn = &t
	case ActionFirstCheckOut:
		r.FirstCheckOut = &t
	case ActionSecondCheckIn:
		r.SecondCheckIn = &t
	case ActionSecondCheckOut:
		r.SecondCheckOut = &t
	}
}

// LatestEvent returns the most recent non-null timestamp and the action that wrote it.
func (r Record) LatestEvent() (Action, *time.Time) {
	for i := len(SessionActions) - 1; i >= 0; i-- {
		if ts := r.Timestamp(SessionActions[i]); ts != nil {
			return SessionActions[i], ts
		}
	}
	return "", nil
}

// SequenceViolation returns the first timestamp that is set without its
// predecessor or that precedes it, or nil when the sequence is in order.
func (r Record) SequenceViolation() *SequenceError {
	for i := 1; i < len(SessionActions); i++ {
		ts := r.Timestamp(SessionActions[i])
		if ts == nil {
			continue
		}
		prev := r.Timestamp(SessionActions[i-1])
		if prev == nil || ts.Before(*prev) {
			return SequenceErrorFor(SessionActions[i])
		}
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type Status string

const (
	StatusCheckedIn Status = "CHECKED_IN"
	StatusOnBreak   Status = "ON_BREAK"
	StatusCompleted Status = "COMPLETED"
)

var StatusValues = []string{
	string(StatusCheckedIn),
	string(StatusOnBreak),
	string(StatusCompleted),
}

// Action is the next check-in/out step of a day, in strict order.
type Action string

const (
	ActionFirstCheckIn   Action = "first_check_in"
	ActionFirstCheckOut  Action = "first_check_out"
	ActionSecondCheckIn  Action = "second_check_in"
	ActionSecondCheckOut Action = "second_check_out"
	ActionCompleted      Action = "completed"
)

// SessionActions lists the actions that write a timestamp, in order.
var SessionActions = []Action{
	ActionFirstCheckIn,
	ActionFirstCheckOut,
	ActionSecondCheckIn,
	ActionSecondCheckOut,
}

var ActionValues = []string{
	string(ActionFirstCheckIn),
	string(ActionFirstCheckOut),
	string(ActionSecondCheckIn),
	string(ActionSecondCheckOut),
}

// Kind reports whether the action is a check-in or a check-out event.
func (a Action) Kind() EventKind {
	switch a {
	case ActionFirstCheckIn, ActionSecondCheckIn:
		return EventCheckIn
	case ActionFirstCheckOut, ActionSecondCheckOut:
		return EventCheckOut
	}
	return ""
}

// Column is the attendance_records column written by the action.
func (a Action) Column() string {
	switch a {
	case ActionFirstCheckIn:
		return "first_check_in_time"
	case ActionFirstCheckOut:
		return "first_check_out_time"
	case ActionSecondCheckIn:
		return "second_check_in_time"
	case ActionSecondCheckOut:
		return "second_check_out_time"
	}
	return ""
}

// Label is the operator-facing wording of the action.
func (a Action) Label() string {
	switch a {
	case ActionFirstCheckIn:
		return "Check in"
	case ActionFirstCheckOut:
		return "Start break"
	case ActionSecondCheckIn:
		return "Back from break"
	case ActionSecondCheckOut:
		return "Check out"
	case ActionCompleted:
		return "Attendance complete"
	}
	return string(a)
}

type EventKind string

const (
	EventCheckIn  EventKind = "check_in"
	EventCheckOut EventKind = "check_out"
)

// Actions returns the session actions of this kind.
func (k EventKind) Actions() []Action {
	switch k {
	case EventCheckIn:
		return []Action{ActionFirstCheckIn, ActionSecondCheckIn}
	case EventCheckOut:
		return []Action{ActionFirstCheckOut, ActionSecondCheckOut}
	}
	return nil
}

// State is the position of a day in the check-in/out sequence.
type State string

const (
	StateNotStarted       State = "NOT_STARTED"
	StateFirstCheckedIn   State = "FIRST_CHECKED_IN"
	StateFirstCheckedOut  State = "FIRST_CHECKED_OUT"
	StateSecondCheckedIn  State = "SECOND_CHECKED_IN"
	StateSecondCheckedOut State = "SECOND_CHECKED_OUT"
)
