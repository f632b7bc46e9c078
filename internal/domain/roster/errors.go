package roster

import "errors"

var (
	ErrNoRosterAssigned = errors.New("no active roster assigned to employee")
	ErrRosterNotFound   = errors.New("roster not found")
	ErrInvalidWallClock = errors.New("invalid wall-clock time, use HH:MM")
)
