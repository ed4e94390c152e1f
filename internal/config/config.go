package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	S3       S3Config
	Log      LogConfig
	CORS     CORSConfig
	Engine   EngineConfig
	Poller   PollerConfig
	Pipeline PipelineConfig
	Queue    QueueConfig
	Email    EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EngineConfig holds extraction engine settings. Primary describes the LLM
// engine; the fallback engine is deterministic and needs no configuration.
type EngineConfig struct {
	Primary PrimaryEngineConfig `mapstructure:"primary"`
	// TimeoutSecs bounds how long the coordinator waits for the primary
	// engine before falling back.
	TimeoutSecs int `mapstructure:"timeout_secs"`
}

// PrimaryEngineConfig holds settings for the LLM-backed primary engine.
type PrimaryEngineConfig struct {
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// PollerConfig holds status poller settings.
type PollerConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	DelaySecs   int `mapstructure:"delay_secs"`
}

// PipelineConfig holds document pipeline settings.
type PipelineConfig struct {
	// ConfidenceThreshold is the minimum overall confidence below which the
	// pipeline escalates to the next extraction tier.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	// MaxTier caps tier escalation.
	MaxTier int `mapstructure:"max_tier"`
}

// QueueConfig holds reprocess queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
	// StaleAfterSecs is how long a record may sit in a non-terminal state
	// before the worker treats its run as dead and re-dispatches it.
	StaleAfterSecs int `mapstructure:"stale_after_secs"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider      string `mapstructure:"provider"`
	Region        string `mapstructure:"region"`
	FromAddress   string `mapstructure:"from_address"`
	FromName      string `mapstructure:"from_name"`
	NotifyAddress string `mapstructure:"notify_address"`
}

// Load reads configuration from environment variables with the MATTERDESK_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MATTERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "matterdesk")
	v.SetDefault("db.password", "matterdesk_secret")
	v.SetDefault("db.name", "matterdesk_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "af-south-1")
	v.SetDefault("s3.bucket", "matterdesk-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Engine defaults
	v.SetDefault("engine.timeout_secs", 30)
	v.SetDefault("engine.primary.api_key", "")
	v.SetDefault("engine.primary.default_model", "claude-sonnet-4-20250514")
	v.SetDefault("engine.primary.timeout_secs", 120)

	// Poller defaults: 60 attempts x 2s gives the 120s timeout ceiling.
	v.SetDefault("poller.max_attempts", 60)
	v.SetDefault("poller.delay_secs", 2)

	// Pipeline defaults
	v.SetDefault("pipeline.confidence_threshold", 0.75)
	v.SetDefault("pipeline.max_tier", 3)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.stale_after_secs", 300)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "af-south-1")
	v.SetDefault("email.from_address", "noreply@matterdesk.io")
	v.SetDefault("email.from_name", "Matterdesk")
	v.SetDefault("email.notify_address", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                   "MATTERDESK_SERVER_PORT",
		"server.read_timeout":           "MATTERDESK_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "MATTERDESK_SERVER_WRITE_TIMEOUT",
		"server.environment":            "MATTERDESK_SERVER_ENVIRONMENT",
		"db.host":                       "MATTERDESK_DB_HOST",
		"db.port":                       "MATTERDESK_DB_PORT",
		"db.user":                       "MATTERDESK_DB_USER",
		"db.password":                   "MATTERDESK_DB_PASSWORD",
		"db.name":                       "MATTERDESK_DB_NAME",
		"db.sslmode":                    "MATTERDESK_DB_SSLMODE",
		"db.max_open":                   "MATTERDESK_DB_MAX_OPEN",
		"db.max_idle":                   "MATTERDESK_DB_MAX_IDLE",
		"s3.region":                     "MATTERDESK_S3_REGION",
		"s3.bucket":                     "MATTERDESK_S3_BUCKET",
		"s3.endpoint":                   "MATTERDESK_S3_ENDPOINT",
		"s3.access_key":                 "MATTERDESK_S3_ACCESS_KEY",
		"s3.secret_key":                 "MATTERDESK_S3_SECRET_KEY",
		"s3.presign_expiry":             "MATTERDESK_S3_PRESIGN_EXPIRY",
		"log.level":                     "MATTERDESK_LOG_LEVEL",
		"log.format":                    "MATTERDESK_LOG_FORMAT",
		"cors.allowed_origins":          "MATTERDESK_CORS_ALLOWED_ORIGINS",
		"engine.timeout_secs":           "MATTERDESK_ENGINE_TIMEOUT_SECS",
		"engine.primary.api_key":        "MATTERDESK_ENGINE_PRIMARY_API_KEY",
		"engine.primary.default_model":  "MATTERDESK_ENGINE_PRIMARY_DEFAULT_MODEL",
		"engine.primary.timeout_secs":   "MATTERDESK_ENGINE_PRIMARY_TIMEOUT_SECS",
		"poller.max_attempts":           "MATTERDESK_POLLER_MAX_ATTEMPTS",
		"poller.delay_secs":             "MATTERDESK_POLLER_DELAY_SECS",
		"pipeline.confidence_threshold": "MATTERDESK_PIPELINE_CONFIDENCE_THRESHOLD",
		"pipeline.max_tier":             "MATTERDESK_PIPELINE_MAX_TIER",
		"queue.poll_interval_secs":      "MATTERDESK_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":             "MATTERDESK_QUEUE_MAX_RETRIES",
		"queue.concurrency":             "MATTERDESK_QUEUE_CONCURRENCY",
		"queue.stale_after_secs":        "MATTERDESK_QUEUE_STALE_AFTER_SECS",
		"email.provider":                "MATTERDESK_EMAIL_PROVIDER",
		"email.region":                  "MATTERDESK_EMAIL_REGION",
		"email.from_address":            "MATTERDESK_EMAIL_FROM_ADDRESS",
		"email.from_name":               "MATTERDESK_EMAIL_FROM_NAME",
		"email.notify_address":          "MATTERDESK_EMAIL_NOTIFY_ADDRESS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if MATTERDESK_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("MATTERDESK_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("cors.allowed_origins")),
	}
	cfg.Engine = EngineConfig{
		TimeoutSecs: v.GetInt("engine.timeout_secs"),
		Primary: PrimaryEngineConfig{
			APIKey:       v.GetString("engine.primary.api_key"),
			DefaultModel: v.GetString("engine.primary.default_model"),
			TimeoutSecs:  v.GetInt("engine.primary.timeout_secs"),
		},
	}
	cfg.Poller = PollerConfig{
		MaxAttempts: v.GetInt("poller.max_attempts"),
		DelaySecs:   v.GetInt("poller.delay_secs"),
	}
	cfg.Pipeline = PipelineConfig{
		ConfidenceThreshold: v.GetFloat64("pipeline.confidence_threshold"),
		MaxTier:             v.GetInt("pipeline.max_tier"),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
		StaleAfterSecs:   v.GetInt("queue.stale_after_secs"),
	}
	cfg.Email = EmailConfig{
		Provider:      v.GetString("email.provider"),
		Region:        v.GetString("email.region"),
		FromAddress:   v.GetString("email.from_address"),
		FromName:      v.GetString("email.from_name"),
		NotifyAddress: v.GetString("email.notify_address"),
	}

	return cfg, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
