package dashboard

import "context"

// DashboardService defines the interface for dashboard operations
type DashboardService interface {
	// TodaySummary returns the attendance overview of the current day
	TodaySummary(ctx context.Context) (*SummaryResponse, error)

	// SummaryForDate returns the attendance overview of a specific day
	SummaryForDate(ctx context.Context, req SummaryRequest) (*SummaryResponse, error)
}
