package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const dateFormat = "2006-01-02"

const recordColumns = `
	ar.id, ar.employee_id, ar.roster_id, ar.date,
	ar.first_check_in_time, ar.first_check_out_time, ar.second_check_in_time, ar.second_check_out_time,
	ar.status, ar.minutes_late, ar.early_departure_minutes, ar.break_duration_minutes,
	ar.expected_hours, ar.actual_hours, ar.is_second_session, ar.previous_session_id, ar.last_action,
	ar.created_at, ar.updated_at, e.full_name`

const recordFrom = `
	FROM attendance_records ar
	LEFT JOIN employees e ON e.id = ar.employee_id`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.RosterID, &rec.Date,
		&rec.FirstCheckIn, &rec.FirstCheckOut, &rec.SecondCheckIn, &rec.SecondCheckOut,
		&rec.Status, &rec.MinutesLate, &rec.EarlyDepartureMinutes, &rec.BreakDurationMinutes,
		&rec.ExpectedHours, &rec.ActualHours, &rec.IsSecondSession, &rec.PreviousSessionID, &rec.LastAction,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.EmployeeName,
	)
	return rec, err
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			id, employee_id, roster_id, date,
			first_check_in_time, first_check_out_time, second_check_in_time, second_check_out_time,
			status, minutes_late, early_departure_minutes, break_duration_minutes,
			expected_hours, actual_hours, is_second_session, previous_session_id, last_action
		) VALUES (
			$1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`

	_, err := q.Exec(ctx, query,
		record.ID,
		record.EmployeeID,
		record.RosterID,
		record.Date.Format(dateFormat),
		record.FirstCheckIn,
		record.FirstCheckOut,
		record.SecondCheckIn,
		record.SecondCheckOut,
		record.Status,
		record.MinutesLate,
		record.EarlyDepartureMinutes,
		record.BreakDurationMinutes,
		record.ExpectedHours,
		record.ActualHours,
		record.IsSecondSession,
		record.PreviousSessionID,
		record.LastAction,
	)
	if err != nil {
		if mapped := mapAttendanceError(err, record); mapped != err {
			return attendance.Record{}, mapped
		}
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return a.GetByID(ctx, record.ID)
}

// ApplyTransition implements attendance.AttendanceRepository.
func (a *attendanceRepository) ApplyTransition(ctx context.Context, record attendance.Record, action attendance.Action) (attendance.Record, error) {
	column := action.Column()
	if column == "" {
		return attendance.Record{}, fmt.Errorf("action %q does not write a timestamp", action)
	}

	var stored attendance.Record
	err := WithTransaction(ctx, a.db, func(tx pgx.Tx) error {
		var current *time.Time
		lockQuery := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE id = $1 FOR UPDATE`, column)
		if err := tx.QueryRow(ctx, lockQuery, record.ID).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrAttendanceNotFound
			}
			return fmt.Errorf("failed to lock attendance record: %w", err)
		}
		if current != nil {
			return attendance.ErrDuplicateAttendanceForDay
		}

		updateQuery := fmt.Sprintf(`
			UPDATE attendance_records SET
				%s = $2,
				roster_id = $3,
				status = $4,
				minutes_late = $5,
				early_departure_minutes = $6,
				break_duration_minutes = $7,
				expected_hours = $8,
				actual_hours = $9,
				last_action = $10,
				updated_at = NOW()
			WHERE id = $1 AND %s IS NULL
		`, column, column)

		tag, err := tx.Exec(ctx, updateQuery,
			record.ID,
			record.Timestamp(action),
			record.RosterID,
			record.Status,
			record.MinutesLate,
			record.EarlyDepartureMinutes,
			record.BreakDurationMinutes,
			record.ExpectedHours,
			record.ActualHours,
			record.LastAction,
		)
		if err != nil {
			if mapped := mapAttendanceError(err, record); mapped != err {
				return mapped
			}
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return attendance.ErrDuplicateAttendanceForDay
		}

		stored, err = a.GetByID(ContextWithTx(ctx, tx), record.ID)
		return err
	})
	if err != nil {
		return attendance.Record{}, err
	}

	return stored, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + recordColumns + recordFrom + ` WHERE ar.id = $1`

	rec, err := scanRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return rec, nil
}

// GetCurrentForDay implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetCurrentForDay(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + recordColumns + recordFrom + `
		WHERE ar.employee_id = $1
		  AND ar.date = $2::date
		ORDER BY ar.is_second_session DESC, ar.created_at DESC
		LIMIT 1
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date.Format(dateFormat)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get current attendance record: %w", err)
	}

	return &rec, nil
}

// ExistsEventAt implements attendance.AttendanceRepository.
func (a *attendanceRepository) ExistsEventAt(ctx context.Context, employeeID string, kind attendance.EventKind, at time.Time) (bool, error) {
	q := GetQuerier(ctx, a.db)

	actions := kind.Actions()
	if len(actions) == 0 {
		return false, fmt.Errorf("unknown event kind %q", kind)
	}
	conditions := make([]string, 0, len(actions))
	for _, action := range actions {
		conditions = append(conditions, action.Column()+" = $2")
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records
			WHERE employee_id = $1 AND (` + strings.Join(conditions, " OR ") + `)
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, at).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to probe attendance timestamp: %w", err)
	}

	return exists, nil
}

// ListByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + recordColumns + recordFrom + `
		WHERE ar.date = $1::date
		ORDER BY ar.created_at ASC
	`

	rows, err := q.Query(ctx, query, date.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records by date: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND ar.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND ar.date = $%d::date", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND ar.date >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND ar.date <= $%d::date", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND ar.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := `SELECT COUNT(*) FROM attendance_records ar WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	// Build ORDER BY
	orderByField := "ar.date"
	switch filter.SortBy {
	case "first_check_in_time":
		orderByField = "ar.first_check_in_time"
	case "status":
		orderByField = "ar.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`SELECT %s %s
		WHERE %s
		ORDER BY %s %s, ar.created_at %s
		LIMIT $%d OFFSET $%d
	`, recordColumns, recordFrom, baseWhere, orderByField, sortOrder, sortOrder, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

func collectRecords(rows pgx.Rows) ([]attendance.Record, error) {
	records := make([]attendance.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}
	return records, nil
}
