package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/employee"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const dateFormat = "2006-01-02"

var hundred = decimal.NewFromInt(100)

type cachedSummary struct {
	summary   dashboard.SummaryResponse
	expiresAt time.Time
}

type DashboardServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	loc            *time.Location
	ttl            time.Duration
	now            func() time.Time

	mu    sync.Mutex
	cache map[string]cachedSummary
}

func NewDashboardService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	cacheTTL time.Duration,
	loc *time.Location,
) dashboard.DashboardService {
	return newDashboardService(attendanceRepo, employeeRepo, cacheTTL, loc)
}

func newDashboardService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	cacheTTL time.Duration,
	loc *time.Location,
) *DashboardServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardServiceImpl{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		loc:            loc,
		ttl:            cacheTTL,
		now:            time.Now,
		cache:          make(map[string]cachedSummary),
	}
}

// TodaySummary implements dashboard.DashboardService.
func (s *DashboardServiceImpl) TodaySummary(ctx context.Context) (*dashboard.SummaryResponse, error) {
	now := s.now().In(s.loc)
	return s.summary(ctx, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc))
}

// SummaryForDate implements dashboard.DashboardService.
func (s *DashboardServiceImpl) SummaryForDate(ctx context.Context, req dashboard.SummaryRequest) (*dashboard.SummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Date == "" {
		return s.TodaySummary(ctx)
	}

	day, err := time.ParseInLocation(dateFormat, req.Date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	return s.summary(ctx, day)
}

// summary serves a cached summary for day while it is fresh and recomputes it otherwise.
func (s *DashboardServiceImpl) summary(ctx context.Context, day time.Time) (*dashboard.SummaryResponse, error) {
	key := day.Format(dateFormat)
	now := s.now()

	if s.ttl > 0 {
		s.mu.Lock()
		cached, ok := s.cache[key]
		s.mu.Unlock()
		if ok && now.Before(cached.expiresAt) {
			summary := cached.summary
			return &summary, nil
		}
	}

	var (
		totalEmployees int64
		records        []attendance.Record
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.employeeRepo.CountActive(gCtx)
		if err != nil {
			return fmt.Errorf("failed to count active employees: %w", err)
		}
		totalEmployees = count
		return nil
	})

	g.Go(func() error {
		list, err := s.attendanceRepo.ListByDate(gCtx, day)
		if err != nil {
			return fmt.Errorf("failed to list attendance records: %w", err)
		}
		records = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := Aggregate(records, totalEmployees)
	summary.Date = key
	summary.GeneratedAt = now.In(s.loc).Format(time.RFC3339)

	if s.ttl > 0 {
		s.mu.Lock()
		s.cache[key] = cachedSummary{summary: summary, expiresAt: now.Add(s.ttl)}
		s.pruneLocked(now)
		s.mu.Unlock()
	}

	slog.DebugContext(ctx, "Attendance summary computed", "date", key, "records", len(records), "employees", totalEmployees)
	return &summary, nil
}

// pruneLocked drops expired entries. mu must be held.
func (s *DashboardServiceImpl) pruneLocked(now time.Time) {
	for key, entry := range s.cache {
		if !now.Before(entry.expiresAt) {
			delete(s.cache, key)
		}
	}
}

// Aggregate buckets one day's records. A record superseded by a second-session
// record is skipped so every employee is counted once. Buckets are checked in
// order: open second session, open first session (split by lateness), checked out.
func Aggregate(records []attendance.Record, totalEmployees int64) dashboard.SummaryResponse {
	superseded := make(map[string]struct{})
	for _, r := range records {
		if r.PreviousSessionID != nil {
			superseded[*r.PreviousSessionID] = struct{}{}
		}
	}

	var (
		present, late, onTime, checkedOut, arrivedOnTime int64
		actualHours, expectedHours                       decimal.Decimal
	)

	for _, r := range records {
		if _, skip := superseded[r.ID]; skip {
			continue
		}

		counted := true
		switch {
		case r.SecondCheckIn != nil && r.SecondCheckOut == nil:
			present++
		case r.FirstCheckIn != nil && r.FirstCheckOut == nil:
			present++
			if r.MinutesLate > 0 {
				late++
			} else {
				onTime++
			}
		case r.SecondCheckOut != nil || (r.FirstCheckOut != nil && r.SecondCheckIn == nil):
			checkedOut++
		default:
			counted = false
		}
		if !counted {
			continue
		}

		if r.MinutesLate == 0 {
			arrivedOnTime++
		}
		actualHours = actualHours.Add(decimal.NewFromFloat(r.ActualHours))
		expectedHours = expectedHours.Add(decimal.NewFromFloat(r.ExpectedHours))
	}

	arrived := present + checkedOut
	absent := max(totalEmployees-arrived, 0)

	return dashboard.SummaryResponse{
		TotalEmployees:   totalEmployees,
		CurrentlyPresent: present,
		LateButPresent:   late,
		OnTimePresent:    onTime,
		CheckedOut:       checkedOut,
		Absent:           absent,
		PresentRate:      percent(present, totalEmployees),
		LateRate:         percent(late, totalEmployees),
		CheckedOutRate:   percent(checkedOut, totalEmployees),
		AbsentRate:       percent(absent, totalEmployees),
		AttendanceRate:   percent(arrived, totalEmployees),
		OnTimeRate:       percent(arrivedOnTime, arrived),
		ComplianceRate:   complianceRate(actualHours, expectedHours),
	}
}

// percent formats part/total as a one-decimal percentage, "0.0" when total is zero.
func percent(part, total int64) string {
	if total <= 0 {
		return "0.0"
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(total)).StringFixed(1)
}

func complianceRate(actual, expected decimal.Decimal) string {
	if !expected.IsPositive() {
		return "0.0"
	}
	rate := actual.Mul(hundred).Div(expected)
	if rate.GreaterThan(hundred) {
		rate = hundred
	}
	return rate.StringFixed(1)
}
