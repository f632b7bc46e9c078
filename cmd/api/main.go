package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/config"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/roster"
	appHTTP "github.com/cmlabs-hris/qr-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/auditlog"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/qr-attendance-go/internal/repository/memory"
	"github.com/cmlabs-hris/qr-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/qr-attendance-go/internal/service/attendance"
	dashboardService "github.com/cmlabs-hris/qr-attendance-go/internal/service/dashboard"
	"github.com/go-chi/httplog/v3"
)

const appName = "qr-attendance"

type repositories struct {
	attendance attendance.AttendanceRepository
	employee   employee.EmployeeRepository
	roster     roster.RosterRepository
	auditLog   auditlog.Writer
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		log.Fatal("Error opening store: ", err)
	}
	defer repos.close()

	loc := cfg.Location()
	hub := sse.NewHub()
	auditSink := auditlog.NewBatchSink(repos.auditLog, cfg.AuditLog.BatchSize)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceSvc := attendanceService.NewAttendanceService(
		repos.attendance,
		repos.employee,
		repos.roster,
		auditSink,
		hub,
		cfg.Attendance,
		loc,
	)
	dashboardSvc := dashboardService.NewDashboardService(repos.attendance, repos.employee, cfg.Dashboard.CacheTTL, loc)

	scheduler := cron.NewScheduler()
	jobs := cron.NewAttendanceJobs(auditSink, dashboardSvc, hub)
	jobs.RegisterJobs(scheduler, cfg.AuditLog.FlushInterval, cfg.Dashboard.BroadcastInterval)
	scheduler.Start()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	dashboardHandler := appHTTP.NewDashboardHandler(dashboardSvc, JWTService, hub)

	router := appHTTP.NewRouter(
		cfg.App,
		logger,
		JWTService,
		attendanceHandler,
		dashboardHandler,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "store", cfg.Store.Type, "timezone", cfg.App.Timezone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()
	if err := jobs.FlushAuditLog(shutdownCtx); err != nil {
		slog.Error("Final audit flush failed", "error", err)
	}
}

func newLogger(cfg config.AppConfig) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(cfg.Env == "development")

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	switch cfg.Store.Type {
	case "memory":
		store := memory.NewStore()
		seedDemoData(store)
		slog.Warn("Using in-memory store, records are lost on restart")
		return &repositories{
			attendance: memory.NewAttendanceRepository(store),
			employee:   memory.NewEmployeeRepository(store),
			roster:     memory.NewRosterRepository(store),
			auditLog:   auditlog.NewSlogWriter(logger),
			close:      func() {},
		}, nil

	case "postgres":
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.WithMaxConns(int32(cfg.Database.MaxConns)))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := postgresql.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}

		var auditWriter auditlog.Writer = auditlog.NewSlogWriter(logger)
		if strings.EqualFold(cfg.AuditLog.Writer, "postgres") {
			auditWriter = postgresql.NewAuditLogRepository(db)
		}

		return &repositories{
			attendance: postgresql.NewAttendanceRepository(db),
			employee:   postgresql.NewEmployeeRepository(db),
			roster:     postgresql.NewRosterRepository(db),
			auditLog:   auditWriter,
			close:      db.Close,
		}, nil
	}

	return nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
}

// seedDemoData gives the in-memory store a roster and two badges to scan.
func seedDemoData(store *memory.Store) {
	rosterID := "roster-office"
	store.AddRoster(roster.Roster{
		ID:                      rosterID,
		Name:                    "Office hours",
		StartTime:               roster.MustParseWallClock("08:00"),
		EndTime:                 roster.MustParseWallClock("17:00"),
		BreakDurationMinutes:    60,
		GracePeriodMinutes:      10,
		EarlyDepartureThreshold: 15,
		IsActive:                true,
	})
	store.AddEmployee(employee.Employee{ID: "EMP-001", EmployeeCode: "EMP-001", FullName: "Demo Employee", Status: employee.StatusActive, RosterID: &rosterID})
	store.AddEmployee(employee.Employee{ID: "EMP-002", EmployeeCode: "EMP-002", FullName: "Demo Supervisor", Status: employee.StatusActive, RosterID: &rosterID})
}
