package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/auditlog"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

var auditLogColumns = []string{"occurred_at", "employee_id", "action", "record_id", "outcome", "message"}

type auditLogRepository struct {
	db *database.DB
}

// NewAuditLogRepository returns a batch writer that bulk-loads entries with COPY.
func NewAuditLogRepository(db *database.DB) auditlog.Writer {
	return &auditLogRepository{db: db}
}

// WriteBatch implements auditlog.Writer.
func (r *auditLogRepository) WriteBatch(ctx context.Context, entries []auditlog.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	rows := pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
		e := entries[i]
		return []any{
			e.OccurredAt,
			nullIfEmpty(e.EmployeeID),
			nullIfEmpty(e.Action),
			nullIfEmpty(e.RecordID),
			string(e.Outcome),
			nullIfEmpty(e.Message),
		}, nil
	})

	if _, err := q.CopyFrom(ctx, pgx.Identifier{"attendance_audit_logs"}, auditLogColumns, rows); err != nil {
		return fmt.Errorf("failed to copy attendance audit logs: %w", err)
	}

	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
