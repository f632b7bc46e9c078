package memory

import (
	"context"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/employee"
)

type employeeRepository struct {
	store *Store
}

func NewEmployeeRepository(store *Store) employee.EmployeeRepository {
	return &employeeRepository{store: store}
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// CountActive implements employee.EmployeeRepository.
func (r *employeeRepository) CountActive(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, e := range r.store.employees {
		if e.IsActive() {
			count++
		}
	}
	return count, nil
}
