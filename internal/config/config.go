package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Store      StoreConfig
	Attendance AttendanceConfig
	Dashboard  DashboardConfig
	AuditLog   AuditLogConfig
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	Timezone    string
	FrontendURL string
}

// StoreConfig selects the record store backend ("postgres" or "memory").
type StoreConfig struct {
	Type string
}

// AttendanceConfig holds the business rules of the uniqueness guard.
type AttendanceConfig struct {
	MinSessionGap        time.Duration
	CollisionOffset      time.Duration
	MaxTimestampAttempts int
}

type DashboardConfig struct {
	CacheTTL          time.Duration
	BroadcastInterval time.Duration
}

// AuditLogConfig controls the batched scan audit sink.
type AuditLogConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	Writer        string // slog, postgres
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	dbMaxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        dbPort,
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "qr_attendance"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		MaxConns:    dbMaxConns,
		AutoMigrate: getEnv("DB_AUTO_MIGRATE", "false") == "true",
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Timezone:    getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	config.Store = StoreConfig{
		Type: getEnv("STORE_TYPE", "postgres"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"),
	}

	// Attendance rules
	minGap, err := getEnvDuration("ATTENDANCE_MIN_SESSION_GAP", "15m")
	if err != nil {
		return nil, err
	}
	collisionOffset, err := getEnvDuration("ATTENDANCE_COLLISION_OFFSET", "1s")
	if err != nil {
		return nil, err
	}
	maxAttempts, err := strconv.Atoi(getEnv("ATTENDANCE_MAX_TIMESTAMP_ATTEMPTS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_MAX_TIMESTAMP_ATTEMPTS: %w", err)
	}

	config.Attendance = AttendanceConfig{
		MinSessionGap:        minGap,
		CollisionOffset:      collisionOffset,
		MaxTimestampAttempts: maxAttempts,
	}

	// Dashboard configuration
	cacheTTL, err := getEnvDuration("DASHBOARD_CACHE_TTL", "30s")
	if err != nil {
		return nil, err
	}
	broadcastInterval, err := getEnvDuration("DASHBOARD_BROADCAST_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}

	config.Dashboard = DashboardConfig{
		CacheTTL:          cacheTTL,
		BroadcastInterval: broadcastInterval,
	}

	// Audit log configuration
	batchSize, err := strconv.Atoi(getEnv("AUDIT_LOG_BATCH_SIZE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIT_LOG_BATCH_SIZE: %w", err)
	}
	flushInterval, err := getEnvDuration("AUDIT_LOG_FLUSH_INTERVAL", "5s")
	if err != nil {
		return nil, err
	}

	config.AuditLog = AuditLogConfig{
		BatchSize:     batchSize,
		FlushInterval: flushInterval,
		Writer:        getEnv("AUDIT_LOG_WRITER", "slog"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !isOneOf(c.Store.Type, "postgres", "memory") {
		return fmt.Errorf("STORE_TYPE must be 'postgres' or 'memory'")
	}
	if c.Store.Type == "postgres" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Attendance.MaxTimestampAttempts <= 0 {
		return fmt.Errorf("ATTENDANCE_MAX_TIMESTAMP_ATTEMPTS must be positive")
	}
	if c.Attendance.CollisionOffset <= 0 {
		return fmt.Errorf("ATTENDANCE_COLLISION_OFFSET must be positive")
	}
	if c.Attendance.MinSessionGap < 0 {
		return fmt.Errorf("ATTENDANCE_MIN_SESSION_GAP must not be negative")
	}
	if c.AuditLog.BatchSize <= 0 {
		return fmt.Errorf("AUDIT_LOG_BATCH_SIZE must be positive")
	}
	if !isOneOf(c.AuditLog.Writer, "slog", "postgres") {
		return fmt.Errorf("AUDIT_LOG_WRITER must be 'slog' or 'postgres'")
	}
	if c.AuditLog.Writer == "postgres" && c.Store.Type != "postgres" {
		return fmt.Errorf("AUDIT_LOG_WRITER=postgres requires STORE_TYPE=postgres")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the time zone used to derive attendance calendar days.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func isOneOf(value string, options ...string) bool {
	for _, option := range options {
		if value == option {
			return true
		}
	}
	return false
}
