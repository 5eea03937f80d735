package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"fintrack/database"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP API
	HTTPAddr string

	// Scheduler configuration
	ScanCron          string // Cron spec for the due-schedule scan
	SnapshotCron      string // Cron spec for the net-worth snapshot
	ScanOnStartup     bool   // Run one scan immediately after the scheduler starts
	SchedulerTimezone string // Timezone the cron specs are evaluated in

	// Forecast configuration
	ForecastDefaultDays  int
	ForecastMaxDays      int
	TrendDefaultPeriods  int
	TrendProjectionSteps int
	TrendMaxPeriods      int
	TrendMaxSteps        int

	// NATS configuration
	NATSEnabled bool
	NATSServers string // NATS server addresses (comma-separated)

	// Discord webhook for scan notifications
	DiscordWebhookID    string
	DiscordWebhookToken string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // console, otlp or none
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// Load reads the configuration without touching the global instance
func Load() (*Config, error) {
	return load()
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// NATSServerList splits NATSServers into individual URLs
func (c *Config) NATSServerList() []string {
	var servers []string
	for _, s := range strings.Split(c.NATSServers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	return servers
}

// DiscordEnabled reports whether scan notifications should be sent
func (c *Config) DiscordEnabled() bool {
	return c.DiscordWebhookID != "" && c.DiscordWebhookToken != ""
}

// load loads configuration from environment variables, reading .env first when present
func load() (*Config, error) {
	// A missing .env file is fine; real environment variables win over it
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		ScanCron:          getEnvWithDefault("SCAN_CRON", "1 0 * * *"),
		SnapshotCron:      getEnvWithDefault("SNAPSHOT_CRON", "5 0 * * *"),
		ScanOnStartup:     getEnvBool("SCAN_ON_STARTUP", false),
		SchedulerTimezone: getEnvWithDefault("SCHEDULER_TIMEZONE", "UTC"),

		ForecastDefaultDays:  getEnvInt("FORECAST_DEFAULT_DAYS", 30),
		ForecastMaxDays:      getEnvInt("FORECAST_MAX_DAYS", 3650),
		TrendDefaultPeriods:  getEnvInt("TREND_DEFAULT_PERIODS", 6),
		TrendProjectionSteps: getEnvInt("TREND_PROJECTION_STEPS", 3),
		TrendMaxPeriods:      getEnvInt("TREND_MAX_PERIODS", 366),
		TrendMaxSteps:        getEnvInt("TREND_MAX_STEPS", 120),

		NATSEnabled: getEnvBool("NATS_ENABLED", false),
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		DiscordWebhookID:    os.Getenv("DISCORD_WEBHOOK_ID"),
		DiscordWebhookToken: os.Getenv("DISCORD_WEBHOOK_TOKEN"),

		OTelEnabled:              getEnvBool("OTEL_ENABLED", false),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "fintrack"),
		OTelExportIntervalMillis: getEnvInt("OTEL_EXPORT_INTERVAL_MILLIS", 60000),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Environment == "test" {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.ForecastDefaultDays < 0 {
		return fmt.Errorf("FORECAST_DEFAULT_DAYS must not be negative")
	}
	if c.ForecastMaxDays < c.ForecastDefaultDays {
		return fmt.Errorf("FORECAST_MAX_DAYS (%d) must be at least FORECAST_DEFAULT_DAYS (%d)", c.ForecastMaxDays, c.ForecastDefaultDays)
	}
	if c.TrendDefaultPeriods < 1 {
		return fmt.Errorf("TREND_DEFAULT_PERIODS must be at least 1")
	}
	if c.TrendProjectionSteps < 0 {
		return fmt.Errorf("TREND_PROJECTION_STEPS must not be negative")
	}
	if c.TrendMaxPeriods < c.TrendDefaultPeriods {
		return fmt.Errorf("TREND_MAX_PERIODS (%d) must be at least TREND_DEFAULT_PERIODS (%d)", c.TrendMaxPeriods, c.TrendDefaultPeriods)
	}
	if c.TrendMaxSteps < c.TrendProjectionSteps {
		return fmt.Errorf("TREND_MAX_STEPS (%d) must be at least TREND_PROJECTION_STEPS (%d)", c.TrendMaxSteps, c.TrendProjectionSteps)
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:              "test",
		HTTPAddr:                 ":0",
		ScanCron:                 "1 0 * * *",
		SnapshotCron:             "5 0 * * *",
		SchedulerTimezone:        "UTC",
		ForecastDefaultDays:      30,
		ForecastMaxDays:          3650,
		TrendDefaultPeriods:      6,
		TrendProjectionSteps:     3,
		TrendMaxPeriods:          366,
		TrendMaxSteps:            120,
		OTelExporterType:         "none",
		OTelServiceName:          "fintrack-test",
		OTelExportIntervalMillis: 1000,
		LogLevel:                 "debug",
	}
}
