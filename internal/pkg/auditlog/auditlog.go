package auditlog

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Outcome string

const (
	OutcomeRecorded Outcome = "recorded"
	OutcomeRejected Outcome = "rejected"
	OutcomeDeleted  Outcome = "deleted"
)

// Entry is one attendance write attempt, successful or not.
type Entry struct {
	OccurredAt time.Time
	EmployeeID string
	Action     string
	RecordID   string
	Outcome    Outcome
	Message    string
}

// Sink receives audit entries. Record must not block the caller on I/O failures.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

// Writer persists a batch of entries.
type Writer interface {
	WriteBatch(ctx context.Context, entries []Entry) error
}

// maxPendingBatches bounds how many batches a failing writer may leave buffered.
const maxPendingBatches = 100

// BatchSink buffers entries and hands them to a Writer once threshold entries
// are pending, or when Flush is called by the scheduler. A batch the writer
// rejects goes back to the front of the buffer and is retried on the next
// write; beyond maxPending entries the oldest ones are dropped.
type BatchSink struct {
	mu         sync.Mutex
	pending    []Entry
	threshold  int
	maxPending int
	dropped    int
	writer     Writer
}

func NewBatchSink(writer Writer, threshold int) *BatchSink {
	if threshold <= 0 {
		threshold = 1
	}
	return &BatchSink{
		pending:    make([]Entry, 0, threshold),
		threshold:  threshold,
		maxPending: threshold * maxPendingBatches,
		writer:     writer,
	}
}

func (s *BatchSink) Record(ctx context.Context, entry Entry) {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.pending = append(s.pending, entry)
	if len(s.pending) < s.threshold {
		s.mu.Unlock()
		return
	}
	batch := s.take()
	s.mu.Unlock()

	// The scan request may finish before the batch is written
	writeCtx := context.WithoutCancel(ctx)
	if err := s.writer.WriteBatch(writeCtx, batch); err != nil {
		s.requeue(batch)
		slog.ErrorContext(writeCtx, "Failed to write attendance audit batch", "error", err, "entries", len(batch))
	}
}

// Flush writes every pending entry. On failure the entries stay buffered.
func (s *BatchSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.take()
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := s.writer.WriteBatch(ctx, batch); err != nil {
		s.requeue(batch)
		return err
	}
	return nil
}

// Pending returns the number of buffered entries.
func (s *BatchSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// take must be called with mu held.
func (s *BatchSink) take() []Entry {
	batch := s.pending
	s.pending = make([]Entry, 0, s.threshold)
	return batch
}

// Dropped returns the number of entries discarded because the buffer was full.
func (s *BatchSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// requeue puts a failed batch back ahead of entries recorded since it was taken.
func (s *BatchSink) requeue(batch []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]Entry, 0, len(batch)+len(s.pending))
	merged = append(merged, batch...)
	merged = append(merged, s.pending...)
	if over := len(merged) - s.maxPending; over > 0 {
		s.dropped += over
		slog.Warn("Attendance audit buffer full, dropping oldest entries", "dropped", over)
		merged = merged[over:]
	}
	s.pending = merged
}

// SlogWriter writes entries as structured log lines.
type SlogWriter struct {
	logger *slog.Logger
}

func NewSlogWriter(logger *slog.Logger) *SlogWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogWriter{logger: logger}
}

func (w *SlogWriter) WriteBatch(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		w.logger.InfoContext(ctx, "Attendance audit",
			slog.Time("occurred_at", e.OccurredAt),
			slog.String("employee_id", e.EmployeeID),
			slog.String("action", e.Action),
			slog.String("record_id", e.RecordID),
			slog.String("outcome", string(e.Outcome)),
			slog.String("message", e.Message),
		)
	}
	return nil
}

// NopSink discards entries.
type NopSink struct{}

func (NopSink) Record(context.Context, Entry) {}
