package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/qr-attendance-go/internal/repository/postgresql"
	"github.com/stretchr/testify/require"
)

const (
	testRosterID   = "0195a000-0000-7000-8000-000000000001"
	testEmployeeID = "emp-pg-1"
)

var wib = time.FixedZone("WIB", 7*3600)

// setupTestDB connects to TEST_DATABASE_URL, applies the schema and seeds one
// employee with a 09:00-17:00 roster. Tests are skipped when no database is configured.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn, database.WithMaxConns(4))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	require.NoError(t, postgresql.Migrate(ctx, db))

	_, err = db.Exec(ctx, `TRUNCATE TABLE attendance_audit_logs, attendance_records, employee_roster_assignments, employees, rosters CASCADE`)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		INSERT INTO rosters (id, name, start_time, end_time, break_duration_minutes, grace_period_minutes, early_departure_threshold)
		VALUES ($1, 'Office hours', '09:00', '17:00', 60, 5, 10)`, testRosterID)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		INSERT INTO employees (id, employee_code, full_name, status, roster_id)
		VALUES ($1, 'PG-001', 'Ayu Lestari', 'active', $2),
		       ('emp-pg-2', 'PG-002', 'Budi Santoso', 'inactive', NULL)`, testEmployeeID, testRosterID)
	require.NoError(t, err)

	return db
}

func at(hh, mm int) *time.Time {
	t := time.Date(2025, 3, 10, hh, mm, 0, 0, wib)
	return &t
}

func today() time.Time {
	return time.Date(2025, 3, 10, 0, 0, 0, 0, wib)
}
