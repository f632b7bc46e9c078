package employee

import "time"

type Employee struct {
	ID           string
	EmployeeCode string
	FullName     string
	Status       Status
	DepartmentID *string
	Position     *string
	RosterID     *string // default roster, overridden by dated assignments
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var StatusValues = []string{
	string(StatusActive),
	string(StatusInactive),
}

// IsActive reports whether the employee may record attendance.
func (e Employee) IsActive() bool {
	return e.Status == StatusActive
}
