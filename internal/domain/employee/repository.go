package employee

import "context"

// EmployeeRepository is read-only: employees are created and imported outside this service.
type EmployeeRepository interface {
	// GetByID returns ErrEmployeeNotFound when no employee has the given id.
	GetByID(ctx context.Context, id string) (Employee, error)

	// CountActive returns the number of employees with status active.
	CountActive(ctx context.Context) (int64, error)
}
