package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// RecordScan derives the next action for the scanned employee and records it
	RecordScan(ctx context.Context, req ScanRequest) (RecordResponse, error)

	// RecordAction records an explicitly requested action after validating it
	RecordAction(ctx context.Context, req ActionRequest) (RecordResponse, error)

	// GetNextAction reports which action the employee's next scan performs
	GetNextAction(ctx context.Context, employeeID string) (NextActionResponse, error)

	// GetCurrentState returns today's state without mutating anything
	GetCurrentState(ctx context.Context, employeeID string) (CurrentStateResponse, error)

	// GetRecord retrieves a single attendance record by ID
	GetRecord(ctx context.Context, id string) (RecordResponse, error)

	// ListRecords retrieves attendance records with filters (admin)
	ListRecords(ctx context.Context, filter AttendanceFilter) (ListRecordResponse, error)

	// DeleteRecord removes an attendance record (admin)
	DeleteRecord(ctx context.Context, id string) error
}
