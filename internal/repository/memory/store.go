package memory

import (
	"sync"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/roster"
)

const dateKeyFormat = "2006-01-02"

// Store holds every table of the in-memory backend behind one lock, so the
// repositories built on it see a consistent view and enforce the same
// uniqueness and ordering constraints as the PostgreSQL schema.
type Store struct {
	mu          sync.RWMutex
	employees   map[string]employee.Employee
	rosters     map[string]roster.Roster
	assignments []roster.Assignment
	records     map[string]attendance.Record
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		employees: make(map[string]employee.Employee),
		rosters:   make(map[string]roster.Roster),
		records:   make(map[string]attendance.Record),
		now:       time.Now,
	}
}

func (s *Store) AddEmployee(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
}

func (s *Store) AddRoster(r roster.Roster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters[r.ID] = r
}

func (s *Store) AddAssignment(a roster.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.assignments = append(s.assignments, a)
}

// RecordCount returns the number of stored attendance records.
func (s *Store) RecordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func dateKey(t time.Time) string {
	return t.Format(dateKeyFormat)
}

// withEmployeeName must be called with mu held.
func (s *Store) withEmployeeName(record attendance.Record) attendance.Record {
	c := record.Clone()
	if e, ok := s.employees[c.EmployeeID]; ok {
		name := e.FullName
		c.EmployeeName = &name
	}
	return c
}
