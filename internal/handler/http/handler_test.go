package http

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/config"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/roster"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/qr-attendance-go/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/qr-attendance-go/internal/service/attendance"
	dashboardService "github.com/cmlabs-hris/qr-attendance-go/internal/service/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router http.Handler
	jwt    jwt.Service
	hub    *sse.Hub
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string            `json:"code"`
		Message   string            `json:"message"`
		Details   map[string]string `json:"details"`
		Retryable bool              `json:"retryable"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	rosterID := "roster-day"
	store.AddRoster(roster.Roster{
		ID:                      rosterID,
		Name:                    "Office hours",
		StartTime:               roster.MustParseWallClock("09:00"),
		EndTime:                 roster.MustParseWallClock("17:00"),
		BreakDurationMinutes:    60,
		GracePeriodMinutes:      5,
		EarlyDepartureThreshold: 10,
		IsActive:                true,
	})
	store.AddEmployee(employee.Employee{ID: "emp-1", FullName: "Ayu Lestari", Status: employee.StatusActive, RosterID: &rosterID})
	store.AddEmployee(employee.Employee{ID: "emp-2", FullName: "Budi Santoso", Status: employee.StatusInactive, RosterID: &rosterID})

	attendanceRepo := memory.NewAttendanceRepository(store)
	employeeRepo := memory.NewEmployeeRepository(store)
	hub := sse.NewHub()
	jwtService := jwt.NewJWTService("test-secret", "1h")

	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		employeeRepo,
		memory.NewRosterRepository(store),
		nil,
		hub,
		config.AttendanceConfig{MinSessionGap: 15 * time.Minute, CollisionOffset: time.Second, MaxTimestampAttempts: 10},
		time.UTC,
	)
	dashboardSvc := dashboardService.NewDashboardService(attendanceRepo, employeeRepo, 0, time.UTC)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	router := NewRouter(
		config.AppConfig{FrontendURL: "http://localhost:3000"},
		logger,
		jwtService,
		NewAttendanceHandler(attendanceSvc),
		NewDashboardHandler(dashboardSvc, jwtService, hub),
	)

	return &testServer{router: router, jwt: jwtService, hub: hub}
}

func (s *testServer) token(t *testing.T, role auth.Role) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken("test-"+string(role), role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestAttendanceHandler_Scan(t *testing.T) {
	s := newTestServer(t)
	kiosk := s.token(t, auth.RoleKiosk)

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/scan", kiosk, `{"qr_payload":"EMP:emp-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, "Check in for Ayu Lestari", env.Message)

	var record struct {
		EmployeeID string `json:"employee_id"`
		Action     string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, "emp-1", record.EmployeeID)
	assert.Equal(t, "first_check_in", record.Action)

	rec, env = s.do(t, http.MethodGet, "/api/v1/attendance/employees/emp-1/next-action", kiosk, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var next struct {
		NextAction string `json:"next_action"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &next))
	assert.Equal(t, "first_check_out", next.NextAction)
}

func TestAttendanceHandler_ScanErrors(t *testing.T) {
	s := newTestServer(t)
	kiosk := s.token(t, auth.RoleKiosk)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "malformed body", body: `{`, status: http.StatusBadRequest, code: "BAD_REQUEST"},
		{name: "missing employee", body: `{}`, status: http.StatusUnprocessableEntity, code: "VALIDATION_ERROR"},
		{name: "unknown employee", body: `{"employee_id":"ghost"}`, status: http.StatusNotFound, code: "EMPLOYEE_NOT_FOUND"},
		{name: "inactive employee", body: `{"employee_id":"emp-2"}`, status: http.StatusForbidden, code: "EMPLOYEE_INACTIVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/scan", kiosk, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestAttendanceHandler_RecordActionOutOfSequence(t *testing.T) {
	s := newTestServer(t)
	kiosk := s.token(t, auth.RoleKiosk)

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/actions", kiosk, `{"employee_id":"emp-1","action":"second_check_in"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CHECK_SEQUENCE", env.Error.Code)
	assert.Equal(t, "second_check_in_before_first_check_out", env.Error.Details["kind"])
	assert.False(t, env.Error.Retryable)
}

func TestAttendanceHandler_Authorization(t *testing.T) {
	s := newTestServer(t)
	kiosk := s.token(t, auth.RoleKiosk)
	admin := s.token(t, auth.RoleAdmin)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/attendance", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/attendance/unknown", kiosk, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.do(t, http.MethodDelete, "/api/v1/attendance/unknown", admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/dashboard/today", kiosk, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAttendanceHandler_ListAndDelete(t *testing.T) {
	s := newTestServer(t)
	kiosk := s.token(t, auth.RoleKiosk)
	admin := s.token(t, auth.RoleAdmin)

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/scan", kiosk, `{"employee_id":"emp-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, env = s.do(t, http.MethodGet, "/api/v1/attendance?employee_id=emp-1", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		TotalCount int64  `json:"total_count"`
		Showing    string `json:"showing"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.TotalCount)
	assert.Equal(t, "1-1 of 1", list.Showing)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance?status=bogus", admin, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/attendance/"+created.ID, admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/"+created.ID, admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardHandler_Summary(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, auth.RoleAdmin)

	rec, env := s.do(t, http.MethodGet, "/api/v1/dashboard/summary?date=2024-01-15", admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary struct {
		Date           string `json:"date"`
		TotalEmployees int64  `json:"total_employees"`
		Absent         int64  `json:"absent"`
		OnTimeRate     string `json:"on_time_rate"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "2024-01-15", summary.Date)
	assert.Equal(t, int64(1), summary.TotalEmployees)
	assert.Equal(t, int64(1), summary.Absent)
	assert.Equal(t, "0.0", summary.OnTimeRate)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/dashboard/summary?date=15-01-2024", admin, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDashboardHandler_Stream(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, auth.RoleAdmin)

	_, env := s.do(t, http.MethodPost, "/api/v1/dashboard/stream-token", admin, "")
	var issued StreamTokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	require.NotEmpty(t, issued.Token)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/dashboard/stream?token=" + admin)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/dashboard/stream?token=" + issued.Token)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 8)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
				events <- name
			}
		}
		close(events)
	}()

	assert.Equal(t, "connected", <-events)
	assert.Equal(t, "dashboard.summary", <-events)

	require.Eventually(t, func() bool {
		return s.hub.SubscriberCount(sse.TopicAttendance) == 1
	}, time.Second, 10*time.Millisecond)

	kiosk := s.token(t, auth.RoleKiosk)
	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/scan", kiosk, `{"employee_id":"emp-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	select {
	case name := <-events:
		assert.Equal(t, "attendance.recorded", name)
	case <-time.After(2 * time.Second):
		t.Fatal("no attendance event on the stream")
	}
}
