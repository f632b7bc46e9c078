package postgresql

import (
	"errors"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"

	sequenceConstraint = "attendance_records_sequence_check"
)

// mapAttendanceError translates constraint violations raised while writing
// record into the domain errors the recorder classifies on.
func mapAttendanceError(err error, record attendance.Record) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return attendance.ErrDuplicateAttendanceForDay
	case pgCheckViolation:
		if pgErr.ConstraintName == sequenceConstraint {
			if violation := record.SequenceViolation(); violation != nil {
				return violation
			}
			return attendance.ErrInvalidCheckSequence
		}
	}
	return err
}
