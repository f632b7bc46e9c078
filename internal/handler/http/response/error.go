package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Attendance failures keep the
// wrapped message, which names the employee, so the kiosk can show it as is.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var seqErr *attendance.SequenceError
	if errors.As(err, &seqErr) {
		DomainError(w, http.StatusConflict, "INVALID_CHECK_SEQUENCE", err.Error(), map[string]string{"kind": string(seqErr.Kind)}, false)
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrStreamTokenUsage):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrAccessForbidden):
		Forbidden(w, "Access denied for this role")

	// Employee & roster errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		DomainError(w, http.StatusNotFound, "EMPLOYEE_NOT_FOUND", "Employee not found", nil, false)
	case errors.Is(err, employee.ErrEmployeeInactive):
		DomainError(w, http.StatusForbidden, "EMPLOYEE_INACTIVE", err.Error(), nil, false)
	case errors.Is(err, roster.ErrNoRosterAssigned):
		DomainError(w, http.StatusUnprocessableEntity, "NO_ROSTER_ASSIGNED", err.Error(), nil, false)
	case errors.Is(err, roster.ErrRosterNotFound):
		NotFound(w, "Roster not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceAlreadyComplete):
		DomainError(w, http.StatusConflict, "ATTENDANCE_ALREADY_COMPLETE", err.Error(), nil, false)
	case errors.Is(err, attendance.ErrDuplicateAttendanceForDay):
		DomainError(w, http.StatusConflict, "DUPLICATE_ATTENDANCE", err.Error(), nil, true)
	case errors.Is(err, attendance.ErrTimestampGenerationFailed):
		DomainError(w, http.StatusServiceUnavailable, "TIMESTAMP_GENERATION_FAILED", err.Error(), nil, true)
	case errors.Is(err, attendance.ErrPersistenceFailure):
		DomainError(w, http.StatusServiceUnavailable, "PERSISTENCE_FAILURE", err.Error(), nil, true)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrInvalidQRPayload):
		BadRequest(w, "QR code does not identify an employee", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
