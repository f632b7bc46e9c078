package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/auditlog"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	mu      sync.Mutex
	batches [][]auditlog.Entry
}

func (w *memoryWriter) WriteBatch(_ context.Context, entries []auditlog.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, entries)
	return nil
}

func (w *memoryWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.batches)
}

type stubDashboard struct {
	summary *dashboard.SummaryResponse
	err     error
	calls   int
}

func (s *stubDashboard) TodaySummary(context.Context) (*dashboard.SummaryResponse, error) {
	s.calls++
	return s.summary, s.err
}

func (s *stubDashboard) SummaryForDate(ctx context.Context, _ dashboard.SummaryRequest) (*dashboard.SummaryResponse, error) {
	return s.TodaySummary(ctx)
}

func TestScheduler_AddJobSkipsDisabledIntervals(t *testing.T) {
	s := NewScheduler()
	s.AddJob("enabled", time.Minute, func(context.Context) error { return nil })
	s.AddJob("disabled", 0, func(context.Context) error { return nil })

	assert.Equal(t, []string{"enabled"}, s.Jobs())
}

func TestScheduler_RunOnceJoinsErrors(t *testing.T) {
	s := NewScheduler()
	boom := errors.New("boom")
	ran := 0
	s.AddJob("ok", time.Minute, func(context.Context) error { ran++; return nil })
	s.AddJob("failing", time.Minute, func(context.Context) error { ran++; return boom })

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing")
	assert.Equal(t, 2, ran)
}

func TestScheduler_StartRunsOnTicks(t *testing.T) {
	s := NewScheduler()
	ticks := make(chan struct{}, 4)
	s.AddJob("tick", 10*time.Millisecond, func(context.Context) error {
		select {
		case ticks <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	defer s.Stop()

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}

func TestAttendanceJobs_FlushAuditLog(t *testing.T) {
	writer := &memoryWriter{}
	sink := auditlog.NewBatchSink(writer, 10)
	jobs := NewAttendanceJobs(sink, &stubDashboard{}, sse.NewHub())

	require.NoError(t, jobs.FlushAuditLog(context.Background()))
	assert.Equal(t, 0, writer.count())

	sink.Record(context.Background(), auditlog.Entry{EmployeeID: "emp-1", Outcome: auditlog.OutcomeRecorded})
	require.NoError(t, jobs.FlushAuditLog(context.Background()))
	assert.Equal(t, 1, writer.count())
	assert.Zero(t, sink.Pending())
}

func TestAttendanceJobs_BroadcastSummary(t *testing.T) {
	hub := sse.NewHub()
	dash := &stubDashboard{summary: &dashboard.SummaryResponse{Date: "2024-01-15", TotalEmployees: 3}}
	jobs := NewAttendanceJobs(nil, dash, hub)

	require.NoError(t, jobs.BroadcastSummary(context.Background()))
	assert.Zero(t, dash.calls, "no subscribers, nothing to compute")

	events, cleanup := hub.Subscribe(sse.TopicDashboard)
	defer cleanup()

	require.NoError(t, jobs.BroadcastSummary(context.Background()))
	event := <-events
	assert.Equal(t, "dashboard.summary", event.Event)
	assert.Equal(t, sse.TopicDashboard, event.Topic)
	assert.Equal(t, dash.summary, event.Data)

	dash.err = errors.New("store down")
	assert.Error(t, jobs.BroadcastSummary(context.Background()))
}

func TestAttendanceJobs_RegisterJobs(t *testing.T) {
	s := NewScheduler()
	NewAttendanceJobs(auditlog.NewBatchSink(&memoryWriter{}, 5), &stubDashboard{}, sse.NewHub()).
		RegisterJobs(s, time.Second, time.Minute)
	assert.Equal(t, []string{JobFlushAuditLog, JobBroadcastSummary}, s.Jobs())

	withoutAudit := NewScheduler()
	NewAttendanceJobs(nil, &stubDashboard{}, sse.NewHub()).RegisterJobs(withoutAudit, time.Second, time.Minute)
	assert.Equal(t, []string{JobBroadcastSummary}, withoutAudit.Jobs())
}
