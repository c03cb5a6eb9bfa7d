// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN for the event store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SubjectID identifies the monitored subject (employee/session owner) for all observers on this host.
	SubjectID string `mapstructure:"SUBJECT_ID"`
	// DeviceName is stamped on events and alerts; defaults to the hostname when empty.
	DeviceName string `mapstructure:"DEVICE_NAME"`
	// WatchPath is the directory the file-activity observer watches; empty disables the watcher.
	WatchPath string `mapstructure:"WATCH_PATH"`
	// PolicyFile is the path to the YAML policy table (thresholds, keywords, allowed apps); empty uses built-in defaults.
	PolicyFile string `mapstructure:"POLICY_FILE"`

	// Alerting. When Kafka brokers are set, alerts are published to Kafka and
	// delivered by cmd/worker; otherwise they are POSTed directly to the webhook.
	// AlertKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	AlertKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AlertKafkaTopic is the Kafka topic alerts are published to.
	AlertKafkaTopic string `mapstructure:"ALERT_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the alert delivery worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// AlertWebhookURL is where alert payloads are POSTed (directly, or by the worker).
	AlertWebhookURL string `mapstructure:"ALERT_WEBHOOK_URL"`
	// NotifyTimeout bounds a single alert dispatch (e.g. "10s").
	NotifyTimeout string `mapstructure:"NOTIFY_TIMEOUT"`

	// AppPollInterval is how often the foreground-app observer samples (e.g. "5s").
	AppPollInterval string `mapstructure:"APP_POLL_INTERVAL"`
	// AppProbeCmd is a shell command printing the current foreground application
	// name; empty disables the app-focus observer.
	AppProbeCmd string `mapstructure:"APP_PROBE_CMD"`
	// DevicePollInterval is how often the removable-storage observer samples (e.g. "2s").
	DevicePollInterval string `mapstructure:"DEVICE_POLL_INTERVAL"`
	// DeviceMountsPath is the directory whose entries are treated as attached
	// removable devices; empty disables the device observer.
	DeviceMountsPath string `mapstructure:"DEVICE_MOUNTS_PATH"`

	// OTLPEndpoint enables OpenTelemetry export when set (e.g. http://localhost:4317).
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel sets the zap level ("debug", "info", ...).
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SUBJECT_ID", "EMP-0001")
	v.SetDefault("DEVICE_NAME", "")
	v.SetDefault("WATCH_PATH", "")
	v.SetDefault("POLICY_FILE", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ALERT_KAFKA_TOPIC", "sentinel-alerts")
	v.SetDefault("KAFKA_GROUP_ID", "sentinel-alert-worker")
	v.SetDefault("ALERT_WEBHOOK_URL", "")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("APP_POLL_INTERVAL", "5s")
	v.SetDefault("APP_PROBE_CMD", "")
	v.SetDefault("DEVICE_POLL_INTERVAL", "2s")
	v.SetDefault("DEVICE_MOUNTS_PATH", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.SubjectID == "" {
		return nil, errors.New("config: SUBJECT_ID must be set")
	}

	return &cfg, nil
}

// Device returns DeviceName, falling back to the hostname, then "unknown".
func (c *Config) Device() string {
	if c.DeviceName != "" {
		return c.DeviceName
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "unknown"
}

// NotifyTimeoutDuration parses NotifyTimeout. Returns 10s if unset or invalid.
func (c *Config) NotifyTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.NotifyTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// AppPollIntervalDuration parses AppPollInterval. Returns 5s if unset or invalid.
func (c *Config) AppPollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.AppPollInterval)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// DevicePollIntervalDuration parses DevicePollInterval. Returns 2s if unset or invalid.
func (c *Config) DevicePollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.DevicePollInterval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// AlertKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if Kafka alerting is enabled (non-empty list) and to create the producer.
func (c *Config) AlertKafkaBrokersList() []string {
	if c == nil || c.AlertKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.AlertKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
