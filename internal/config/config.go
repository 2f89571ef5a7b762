package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	SLA        SLAConfig
	Allocation AllocationConfig
	MagicLink  MagicLinkConfig
	Notifier   NotifierConfig
	Storage    StorageConfig
	Drafting   DraftingConfig
	Billing    BillingConfig
	Worker     WorkerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	PublicURL             string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// SLAConfig maps ticket priorities to due-date offsets in hours.
type SLAConfig struct {
	UrgentHours int
	HighHours   int
	MediumHours int
	LowHours    int
}

// AllocationConfig controls hour-allocation display thresholds.
type AllocationConfig struct {
	WarnThresholdPercent int
}

// MagicLinkConfig controls client sign-in link issuance and throttling.
type MagicLinkConfig struct {
	TokenTTLMinutes    int
	MinSendIntervalSec int
	CooldownBaseSec    int
	CooldownCapSec     int
}

// NotifierConfig holds outbound delivery endpoints.
type NotifierConfig struct {
	EmailFrom         string
	WebhookURL        string
	MaxRetries        int
	MaxElapsedSeconds int
}

// StorageConfig scopes attachment object keys and orphan collection.
type StorageConfig struct {
	KeyPrefix             string
	PendingGraceMinutes   int
	SweepIntervalMinutes  int
	SignedURLBase         string
}

// DraftingConfig points at the external completion endpoint used for
// AI-assisted KB drafts.
type DraftingConfig struct {
	Endpoint       string
	APIKey         string
	TimeoutSeconds int
}

// BillingConfig points at the read-only billing subscription API.
type BillingConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// WorkerConfig paces the background sweeps.
type WorkerConfig struct {
	ReconcileIntervalMinutes int
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			PublicURL:             getEnv("APP_PUBLIC_URL", "http://localhost:8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		SLA: SLAConfig{
			UrgentHours: getEnvAsInt("SLA_URGENT_HOURS", 4),
			HighHours:   getEnvAsInt("SLA_HIGH_HOURS", 8),
			MediumHours: getEnvAsInt("SLA_MEDIUM_HOURS", 24),
			LowHours:    getEnvAsInt("SLA_LOW_HOURS", 72),
		},
		Allocation: AllocationConfig{
			WarnThresholdPercent: getEnvAsInt("ALLOCATION_WARN_THRESHOLD_PERCENT", 85),
		},
		MagicLink: MagicLinkConfig{
			TokenTTLMinutes:    getEnvAsInt("MAGIC_LINK_TOKEN_TTL_MINUTES", 15),
			MinSendIntervalSec: getEnvAsInt("MAGIC_LINK_MIN_SEND_INTERVAL_SECONDS", 60),
			CooldownBaseSec:    getEnvAsInt("MAGIC_LINK_COOLDOWN_BASE_SECONDS", 300),
			CooldownCapSec:     getEnvAsInt("MAGIC_LINK_COOLDOWN_CAP_SECONDS", 1800),
		},
		Notifier: NotifierConfig{
			EmailFrom:         getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL:        getEnv("NOTIFY_WEBHOOK_URL", ""),
			MaxRetries:        getEnvAsInt("NOTIFY_MAX_RETRIES", 4),
			MaxElapsedSeconds: getEnvAsInt("NOTIFY_MAX_ELAPSED_SECONDS", 60),
		},
		Storage: StorageConfig{
			KeyPrefix:            getEnv("STORAGE_KEY_PREFIX", "attachments"),
			PendingGraceMinutes:  getEnvAsInt("STORAGE_PENDING_GRACE_MINUTES", 60),
			SweepIntervalMinutes: getEnvAsInt("STORAGE_SWEEP_INTERVAL_MINUTES", 30),
			SignedURLBase:        getEnv("STORAGE_SIGNED_URL_BASE", ""),
		},
		Drafting: DraftingConfig{
			Endpoint:       getEnv("DRAFTING_ENDPOINT", ""),
			APIKey:         os.Getenv("DRAFTING_API_KEY"),
			TimeoutSeconds: getEnvAsInt("DRAFTING_TIMEOUT_SECONDS", 30),
		},
		Billing: BillingConfig{
			BaseURL:        getEnv("BILLING_BASE_URL", ""),
			APIKey:         os.Getenv("BILLING_API_KEY"),
			TimeoutSeconds: getEnvAsInt("BILLING_TIMEOUT_SECONDS", 10),
		},
		Worker: WorkerConfig{
			ReconcileIntervalMinutes: getEnvAsInt("WORKER_RECONCILE_INTERVAL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// DueIn returns the SLA offset for a priority.
func (s SLAConfig) DueIn(priority string) time.Duration {
	hours := s.MediumHours
	switch priority {
	case "urgent":
		hours = s.UrgentHours
	case "high":
		hours = s.HighHours
	case "low":
		hours = s.LowHours
	}
	return time.Duration(hours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
