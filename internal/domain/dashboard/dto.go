package dashboard

import "github.com/cmlabs-hris/qr-attendance-go/internal/pkg/validator"

// SummaryResponse is the live attendance overview of one calendar day.
// Rates are percentages of TotalEmployees with one decimal, except OnTimeRate
// which is relative to the employees who arrived.
type SummaryResponse struct {
	Date           string `json:"date"` // Format: "YYYY-MM-DD"
	TotalEmployees int64  `json:"total_employees"`

	CurrentlyPresent int64 `json:"currently_present"`
	LateButPresent   int64 `json:"late_but_present"`
	OnTimePresent    int64 `json:"on_time_present"`
	CheckedOut       int64 `json:"checked_out"`
	Absent           int64 `json:"absent"`

	PresentRate    string `json:"present_rate"`
	LateRate       string `json:"late_rate"`
	CheckedOutRate string `json:"checked_out_rate"`
	AbsentRate     string `json:"absent_rate"`
	AttendanceRate string `json:"attendance_rate"` // present + checked out
	OnTimeRate     string `json:"on_time_rate"`
	ComplianceRate string `json:"compliance_rate"` // sum actual / sum expected hours, capped at 100

	GeneratedAt string `json:"generated_at"`
}

type SummaryRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, defaults to today
}

func (r *SummaryRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Date != "" {
		if _, ok := validator.IsValidDate(r.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
