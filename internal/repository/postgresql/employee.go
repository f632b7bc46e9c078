package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_code, full_name, status, department_id, position, roster_id, created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	var e employee.Employee
	err := q.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.EmployeeCode, &e.FullName, &e.Status, &e.DepartmentID, &e.Position, &e.RosterID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

// CountActive implements employee.EmployeeRepository.
func (r *employeeRepository) CountActive(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE status = 'active'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active employees: %w", err)
	}

	return count, nil
}
