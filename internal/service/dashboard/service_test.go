package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/qr-attendance-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

func at(hh, mm int) *time.Time {
	t := time.Date(2025, 3, 10, hh, mm, 0, 0, wib).UTC()
	return &t
}

func today() time.Time {
	return time.Date(2025, 3, 10, 0, 0, 0, 0, wib)
}

func seed(t *testing.T, employees int) (*memory.Store, attendance.AttendanceRepository) {
	t.Helper()
	store := memory.NewStore()
	for i := 1; i <= employees; i++ {
		store.AddEmployee(employee.Employee{ID: fmt.Sprintf("emp-%d", i), FullName: fmt.Sprintf("Employee %d", i), Status: employee.StatusActive})
	}
	store.AddEmployee(employee.Employee{ID: "emp-inactive", FullName: "Former", Status: employee.StatusInactive})
	return store, memory.NewAttendanceRepository(store)
}

func create(t *testing.T, repo attendance.AttendanceRepository, record attendance.Record) {
	t.Helper()
	record.Date = today()
	_, err := repo.Create(context.Background(), record)
	require.NoError(t, err)
}

func newService(store *memory.Store, ttl time.Duration, now *time.Time) *DashboardServiceImpl {
	svc := newDashboardService(memory.NewAttendanceRepository(store), memory.NewEmployeeRepository(store), ttl, wib)
	svc.now = func() time.Time { return *now }
	return svc
}

func TestTodaySummary(t *testing.T) {
	store, repo := seed(t, 10)

	create(t, repo, attendance.Record{ID: "r1", EmployeeID: "emp-1", FirstCheckIn: at(8, 55), MinutesLate: 0, Status: attendance.StatusCheckedIn, ActualHours: 2, ExpectedHours: 7})
	create(t, repo, attendance.Record{ID: "r2", EmployeeID: "emp-2", FirstCheckIn: at(9, 0), MinutesLate: 0, Status: attendance.StatusCheckedIn, ActualHours: 2, ExpectedHours: 7})
	create(t, repo, attendance.Record{ID: "r3", EmployeeID: "emp-3", FirstCheckIn: at(9, 30), MinutesLate: 25, Status: attendance.StatusCheckedIn, ActualHours: 1.5, ExpectedHours: 7})
	for i, id := range []string{"r4", "r5"} {
		create(t, repo, attendance.Record{
			ID: id, EmployeeID: fmt.Sprintf("emp-%d", 4+i),
			FirstCheckIn: at(9, 0), FirstCheckOut: at(12, 0), SecondCheckIn: at(13, 0), SecondCheckOut: at(17, 0),
			Status: attendance.StatusCompleted, IsSecondSession: true, ActualHours: 7, ExpectedHours: 7,
		})
	}

	now := time.Date(2025, 3, 10, 11, 0, 0, 0, wib)
	svc := newService(store, 0, &now)

	summary, err := svc.TodaySummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", summary.Date)
	assert.EqualValues(t, 10, summary.TotalEmployees)
	assert.EqualValues(t, 3, summary.CurrentlyPresent)
	assert.EqualValues(t, 1, summary.LateButPresent)
	assert.EqualValues(t, 2, summary.OnTimePresent)
	assert.EqualValues(t, 2, summary.CheckedOut)
	assert.EqualValues(t, 5, summary.Absent)

	assert.Equal(t, "30.0", summary.PresentRate)
	assert.Equal(t, "10.0", summary.LateRate)
	assert.Equal(t, "20.0", summary.CheckedOutRate)
	assert.Equal(t, "50.0", summary.AbsentRate)
	assert.Equal(t, "50.0", summary.AttendanceRate)
	assert.Equal(t, "80.0", summary.OnTimeRate)
	assert.Equal(t, "55.7", summary.ComplianceRate)
}

func TestAggregate_SkipsSupersededFirstSession(t *testing.T) {
	first := "r1"
	records := []attendance.Record{
		{ID: "r1", FirstCheckIn: at(9, 0), FirstCheckOut: at(12, 0)},
		{ID: "r2", FirstCheckIn: at(9, 0), FirstCheckOut: at(12, 0), SecondCheckIn: at(13, 0), PreviousSessionID: &first, IsSecondSession: true},
	}

	summary := Aggregate(records, 1)
	assert.EqualValues(t, 1, summary.CurrentlyPresent)
	assert.EqualValues(t, 0, summary.CheckedOut, "on-break first session is superseded")
	assert.EqualValues(t, 0, summary.Absent)
}

func TestAggregate_OnBreakCountsAsCheckedOut(t *testing.T) {
	summary := Aggregate([]attendance.Record{{ID: "r1", FirstCheckIn: at(9, 0), FirstCheckOut: at(12, 0)}}, 2)
	assert.EqualValues(t, 1, summary.CheckedOut)
	assert.EqualValues(t, 1, summary.Absent)
	assert.Equal(t, "50.0", summary.CheckedOutRate)
}

func TestAggregate_ZeroEmployees(t *testing.T) {
	summary := Aggregate(nil, 0)
	assert.Equal(t, "0.0", summary.PresentRate)
	assert.Equal(t, "0.0", summary.AbsentRate)
	assert.Equal(t, "0.0", summary.OnTimeRate)
	assert.Equal(t, "0.0", summary.ComplianceRate)
	assert.EqualValues(t, 0, summary.Absent)
}

func TestSummary_CacheExpires(t *testing.T) {
	store, repo := seed(t, 2)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, wib)
	svc := newService(store, 30*time.Second, &now)
	ctx := context.Background()

	summary, err := svc.TodaySummary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.CurrentlyPresent)

	create(t, repo, attendance.Record{ID: "r1", EmployeeID: "emp-1", FirstCheckIn: at(9, 0), Status: attendance.StatusCheckedIn})

	now = now.Add(10 * time.Second)
	summary, err = svc.TodaySummary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.CurrentlyPresent, "served from cache")

	now = now.Add(30 * time.Second)
	summary, err = svc.TodaySummary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.CurrentlyPresent)
}

func TestSummaryForDate(t *testing.T) {
	store, repo := seed(t, 4)
	create(t, repo, attendance.Record{ID: "r1", EmployeeID: "emp-1", FirstCheckIn: at(9, 0), Status: attendance.StatusCheckedIn})

	now := time.Date(2025, 3, 11, 9, 0, 0, 0, wib)
	svc := newService(store, 0, &now)
	ctx := context.Background()

	summary, err := svc.SummaryForDate(ctx, dashboard.SummaryRequest{Date: "2025-03-10"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.CurrentlyPresent)
	assert.Equal(t, "25.0", summary.PresentRate)

	summary, err = svc.SummaryForDate(ctx, dashboard.SummaryRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", summary.Date)
	assert.EqualValues(t, 0, summary.CurrentlyPresent)

	_, err = svc.SummaryForDate(ctx, dashboard.SummaryRequest{Date: "10-03-2025"})
	assert.Error(t, err)
}
