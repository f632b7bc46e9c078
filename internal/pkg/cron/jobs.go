package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/auditlog"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/sse"
)

const (
	JobFlushAuditLog    = "flush_audit_log"
	JobBroadcastSummary = "broadcast_dashboard_summary"
)

// AttendanceJobs are the periodic tasks of the attendance service.
type AttendanceJobs struct {
	audit            *auditlog.BatchSink
	dashboardService dashboard.DashboardService
	hub              *sse.Hub
}

func NewAttendanceJobs(audit *auditlog.BatchSink, dashboardService dashboard.DashboardService, hub *sse.Hub) *AttendanceJobs {
	return &AttendanceJobs{
		audit:            audit,
		dashboardService: dashboardService,
		hub:              hub,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, flushInterval, broadcastInterval time.Duration) {
	if j.audit != nil {
		scheduler.AddJob(JobFlushAuditLog, flushInterval, j.FlushAuditLog)
	}
	scheduler.AddJob(JobBroadcastSummary, broadcastInterval, j.BroadcastSummary)
}

// FlushAuditLog writes audit entries still below the batch threshold.
func (j *AttendanceJobs) FlushAuditLog(ctx context.Context) error {
	if j.audit.Pending() == 0 {
		return nil
	}
	if err := j.audit.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush audit log: %w", err)
	}
	return nil
}

// BroadcastSummary pushes today's summary to dashboard subscribers.
func (j *AttendanceJobs) BroadcastSummary(ctx context.Context) error {
	if j.hub.SubscriberCount(sse.TopicDashboard) == 0 {
		return nil
	}

	summary, err := j.dashboardService.TodaySummary(ctx)
	if err != nil {
		return fmt.Errorf("failed to build dashboard summary: %w", err)
	}

	j.hub.Publish(sse.TopicDashboard, sse.Event{
		Event: "dashboard.summary",
		Data:  summary,
	})
	return nil
}
