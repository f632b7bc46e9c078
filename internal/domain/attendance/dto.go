package attendance

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/validator"
)

// ========================================
// SCAN DTOs
// ========================================

type ScanRequest struct {
	EmployeeID string  `json:"employee_id"`
	QRPayload  string  `json:"qr_payload"`
	ScanTime   *string `json:"scan_time,omitempty"` // RFC3339, defaults to now

	ScanAt *time.Time `json:"-"`
}

// Validate resolves the employee from the QR payload when no employee_id is given
// and parses the optional scan time.
func (r *ScanRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		if validator.IsEmpty(r.QRPayload) {
			errs = append(errs, validator.ValidationError{
				Field:   "employee_id",
				Message: "employee_id or qr_payload is required",
			})
		} else {
			employeeID, err := ParseQRPayload(r.QRPayload)
			if err != nil {
				errs = append(errs, validator.ValidationError{
					Field:   "qr_payload",
					Message: err.Error(),
				})
			}
			r.EmployeeID = employeeID
		}
	}
	r.EmployeeID = strings.TrimSpace(r.EmployeeID)

	if r.ScanTime != nil && *r.ScanTime != "" {
		t, ok := validator.IsValidDateTime(*r.ScanTime)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "scan_time",
				Message: "scan_time must be an RFC3339 timestamp",
			})
		} else {
			r.ScanAt = &t
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// qrEnvelope is the JSON form printed on badges generated by the admin UI.
type qrEnvelope struct {
	EmployeeID string `json:"employee_id"`
}

// ParseQRPayload accepts a raw employee id, "EMP:<id>", or {"employee_id": "<id>"}.
func ParseQRPayload(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", ErrInvalidQRPayload
	}

	if strings.HasPrefix(payload, "{") {
		var env qrEnvelope
		if err := json.Unmarshal([]byte(payload), &env); err != nil {
			return "", ErrInvalidQRPayload
		}
		if validator.IsEmpty(env.EmployeeID) {
			return "", ErrInvalidQRPayload
		}
		return strings.TrimSpace(env.EmployeeID), nil
	}

	if prefix, id, found := strings.Cut(payload, ":"); found {
		if !strings.EqualFold(prefix, "EMP") || validator.IsEmpty(id) {
			return "", ErrInvalidQRPayload
		}
		return strings.TrimSpace(id), nil
	}

	if strings.ContainsAny(payload, " \t\n") {
		return "", ErrInvalidQRPayload
	}
	return payload, nil
}

type ActionRequest struct {
	EmployeeID string  `json:"employee_id"`
	Action     Action  `json:"action"`
	At         *string `json:"at,omitempty"` // RFC3339, defaults to now

	AtTime *time.Time `json:"-"`
}

func (r *ActionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if !validator.IsInSlice(string(r.Action), ActionValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be one of: " + strings.Join(ActionValues, ", "),
		})
	}

	if r.At != nil && *r.At != "" {
		t, ok := validator.IsValidDateTime(*r.At)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "at",
				Message: "at must be an RFC3339 timestamp",
			})
		} else {
			r.AtTime = &t
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// RESPONSE DTOs
// ========================================

// RecordResponse is a stored record merged with presentation-only fields.
type RecordResponse struct {
	ID                    string  `json:"id"`
	EmployeeID            string  `json:"employee_id"`
	EmployeeName          string  `json:"employee_name"`
	RosterID              string  `json:"roster_id"`
	Date                  string  `json:"date"`
	Action                *Action `json:"action,omitempty"`
	ActionLabel           *string `json:"action_label,omitempty"`
	FirstCheckInTime      *string `json:"first_check_in_time,omitempty"`
	FirstCheckOutTime     *string `json:"first_check_out_time,omitempty"`
	SecondCheckInTime     *string `json:"second_check_in_time,omitempty"`
	SecondCheckOutTime    *string `json:"second_check_out_time,omitempty"`
	Status                Status  `json:"status"`
	IsLate                bool    `json:"is_late"`
	Lateness              string  `json:"lateness"`
	MinutesLate           int     `json:"minutes_late"`
	EarlyDepartureMinutes int     `json:"early_departure_minutes"`
	BreakDurationMinutes  int     `json:"break_duration_minutes"`
	ExpectedHours         float64 `json:"expected_hours"`
	ActualHours           float64 `json:"actual_hours"`
	ComplianceRate        float64 `json:"compliance_rate"`
	IsSecondSession       bool    `json:"is_second_session"`
	PreviousSessionID     *string `json:"previous_session_id,omitempty"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

type NextActionResponse struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Date         string `json:"date"`
	State        State  `json:"state"`
	NextAction   Action `json:"next_action"`
	Label        string `json:"label"`
	Complete     bool   `json:"complete"`
}

type CurrentStateResponse struct {
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	Date         string          `json:"date"`
	State        State           `json:"state"`
	NextAction   Action          `json:"next_action"`
	Complete     bool            `json:"complete"`
	Record       *RecordResponse `json:"record,omitempty"`
}

type AttendanceFilter struct {
	// Search & Filter
	EmployeeID *string `json:"employee_id,omitempty"`
	Date       *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, first_check_in_time, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	for field, value := range map[string]*string{"date": f.Date, "start_date": f.StartDate, "end_date": f.EndDate} {
		if value != nil && *value != "" {
			if _, ok := validator.IsValidDate(*value); !ok {
				errs = append(errs, validator.ValidationError{
					Field:   field,
					Message: field + " must be in YYYY-MM-DD format",
				})
			}
		}
	}

	if f.StartDate != nil && f.EndDate != nil && *f.StartDate != "" && *f.EndDate != "" {
		start, okStart := validator.IsValidDate(*f.StartDate)
		end, okEnd := validator.IsValidDate(*f.EndDate)
		if okStart && okEnd && end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		}
	}

	if f.Status != nil && *f.Status != "" && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(StatusValues, ", "),
		})
	}

	if f.SortBy != "" && !validator.IsInSlice(f.SortBy, []string{"date", "first_check_in_time", "status"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "sort_by",
			Message: "sort_by must be one of: date, first_check_in_time, status",
		})
	}

	if f.SortOrder != "" && !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "sort_order",
			Message: "sort_order must be 'asc' or 'desc'",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListRecordResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Showing    string           `json:"showing"`
	Records    []RecordResponse `json:"records"`
}
