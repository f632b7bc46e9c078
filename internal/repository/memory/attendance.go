package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
)

type attendanceRepository struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepository{store: store}
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		return attendance.Record{}, errors.New("attendance record id is required")
	}
	if _, exists := s.records[record.ID]; exists {
		return attendance.Record{}, attendance.ErrDuplicateAttendanceForDay
	}

	key := dateKey(record.Date)
	for _, existing := range s.records {
		if existing.EmployeeID == record.EmployeeID &&
			dateKey(existing.Date) == key &&
			existing.IsSecondSession == record.IsSecondSession {
			return attendance.Record{}, attendance.ErrDuplicateAttendanceForDay
		}
	}

	if err := checkSequence(record); err != nil {
		return attendance.Record{}, err
	}

	now := s.now().UTC()
	stored := record.Clone()
	stored.EmployeeName = nil
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.records[stored.ID] = stored

	return s.withEmployeeName(stored), nil
}

// ApplyTransition implements attendance.AttendanceRepository.
func (r *attendanceRepository) ApplyTransition(ctx context.Context, record attendance.Record, action attendance.Action) (attendance.Record, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[record.ID]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	if existing.Timestamp(action) != nil {
		return attendance.Record{}, attendance.ErrDuplicateAttendanceForDay
	}

	updated := existing.Clone()
	if ts := record.Timestamp(action); ts != nil {
		updated.SetTimestamp(action, *ts)
	}
	updated.RosterID = record.RosterID
	updated.Status = record.Status
	updated.MinutesLate = record.MinutesLate
	updated.EarlyDepartureMinutes = record.EarlyDepartureMinutes
	updated.BreakDurationMinutes = record.BreakDurationMinutes
	updated.ExpectedHours = record.ExpectedHours
	updated.ActualHours = record.ActualHours
	updated.LastAction = record.LastAction

	if err := checkSequence(updated); err != nil {
		return attendance.Record{}, err
	}

	updated.UpdatedAt = s.now().UTC()
	s.records[updated.ID] = updated

	return s.withEmployeeName(updated), nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	return s.withEmployeeName(record), nil
}

// GetCurrentForDay implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetCurrentForDay(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := dateKey(date)
	var current *attendance.Record
	for _, record := range s.records {
		if record.EmployeeID != employeeID || dateKey(record.Date) != key {
			continue
		}
		if current == nil ||
			(record.IsSecondSession && !current.IsSecondSession) ||
			(record.IsSecondSession == current.IsSecondSession && record.CreatedAt.After(current.CreatedAt)) {
			c := s.withEmployeeName(record)
			current = &c
		}
	}
	return current, nil
}

// ExistsEventAt implements attendance.AttendanceRepository.
func (r *attendanceRepository) ExistsEventAt(ctx context.Context, employeeID string, kind attendance.EventKind, at time.Time) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.EmployeeID != employeeID {
			continue
		}
		for _, action := range kind.Actions() {
			if ts := record.Timestamp(action); ts != nil && ts.Equal(at) {
				return true, nil
			}
		}
	}
	return false, nil
}

// ListByDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]attendance.Record, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := dateKey(date)
	records := make([]attendance.Record, 0)
	for _, record := range s.records {
		if dateKey(record.Date) == key {
			records = append(records, s.withEmployeeName(record))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// List implements attendance.AttendanceRepository.
func (r *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Record, int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]attendance.Record, 0)
	for _, record := range s.records {
		if matchesFilter(record, filter) {
			matched = append(matched, s.withEmployeeName(record))
		}
	}

	desc := !strings.EqualFold(filter.SortOrder, "asc")
	sort.SliceStable(matched, func(i, j int) bool {
		if desc {
			return lessRecord(matched[j], matched[i], filter.SortBy)
		}
		return lessRecord(matched[i], matched[j], filter.SortBy)
	})

	total := int64(len(matched))
	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return []attendance.Record{}, total, nil
	}
	end := min(start+limit, len(matched))

	return matched[start:end], total, nil
}

// Delete implements attendance.AttendanceRepository.
func (r *attendanceRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	delete(s.records, id)

	// previous_session_id is ON DELETE SET NULL in the schema
	for key, record := range s.records {
		if record.PreviousSessionID != nil && *record.PreviousSessionID == id {
			record.PreviousSessionID = nil
			s.records[key] = record
		}
	}
	return nil
}

func matchesFilter(record attendance.Record, filter attendance.AttendanceFilter) bool {
	if filter.EmployeeID != nil && *filter.EmployeeID != "" && record.EmployeeID != *filter.EmployeeID {
		return false
	}
	key := dateKey(record.Date)
	if filter.Date != nil && *filter.Date != "" && key != *filter.Date {
		return false
	}
	if filter.StartDate != nil && *filter.StartDate != "" && key < *filter.StartDate {
		return false
	}
	if filter.EndDate != nil && *filter.EndDate != "" && key > *filter.EndDate {
		return false
	}
	if filter.Status != nil && *filter.Status != "" && string(record.Status) != *filter.Status {
		return false
	}
	return true
}

// checkSequence mirrors attendance_records_sequence_check.
func checkSequence(record attendance.Record) error {
	if violation := record.SequenceViolation(); violation != nil {
		return violation
	}
	return nil
}

func lessRecord(a, b attendance.Record, sortBy string) bool {
	switch sortBy {
	case "status":
		return a.Status < b.Status
	case "first_check_in_time":
		return timeOrZero(a.FirstCheckIn).Before(timeOrZero(b.FirstCheckIn))
	}
	if dateKey(a.Date) == dateKey(b.Date) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Date.Before(b.Date)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
