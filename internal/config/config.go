// Package config loads pipeline configuration from environment variables,
// with a best-effort .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Debezium topic names follow <server>.<database>.<table>.
const (
	TopicAccessEvents    = "cg.cloudgate.cg_access_event"
	TopicConnectorHealth = "cg.cloudgate.cg_connector_health"
)

// Ingest modes for the generator.
const (
	ModeCDC    = "cdc"
	ModeDirect = "direct"
)

// MySQL holds operational-store connection settings.
type MySQL struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN renders the settings as a go-sql-driver DSN.
func (m MySQL) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		m.User, m.Password, m.Host, m.Port, m.Database)
}

// ClickHouse holds analytical-store connection settings.
type ClickHouse struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// Addr returns the native-protocol address.
func (c ClickHouse) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Kafka holds broker connection settings shared by all binaries.
type Kafka struct {
	Bootstrap []string
	GroupID   string

	// SASL is optional; empty mechanism disables it.
	SASLMechanism string // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	SASLUsername  string
	SASLPassword  string

	TLSEnabled    bool
	TLSSkipVerify bool
	TLSCAFile     string
}

// Config is the full environment-driven configuration.
type Config struct {
	IngestMode string

	MySQL      MySQL
	ClickHouse ClickHouse
	Kafka      Kafka

	// Generator settings.
	EventRatePerSecond float64
	HealthInterval     time.Duration
	ConnectorsFile     string

	// Consumer settings.
	FlushInterval  time.Duration
	MaxBatchEvents int
	MaxBatchHealth int

	Tenants []string

	// Verify settings. An empty ConnectURL skips the Debezium check.
	ConnectURL    string
	ConnectorName string
	VerifyWindow  time.Duration

	LogLevel    string
	MetricsAddr string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present. Malformed numeric values are
// errors rather than silent fallbacks.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []string
	cfg := &Config{
		IngestMode: getEnv("INGEST_MODE", ModeCDC),
		MySQL: MySQL{
			Host:     getEnv("MYSQL_HOST", "mysql"),
			Port:     getInt("MYSQL_PORT", 3306, &errs),
			User:     getEnv("MYSQL_USER", "root"),
			Password: getEnv("MYSQL_PASSWORD", "rootpass"),
			Database: getEnv("MYSQL_DATABASE", "cloudgate"),
		},
		ClickHouse: ClickHouse{
			Host:     getEnv("CLICKHOUSE_HOST", "clickhouse"),
			Port:     getInt("CLICKHOUSE_PORT", 9000, &errs),
			Database: getEnv("CLICKHOUSE_DATABASE", "piam"),
			User:     getEnv("CLICKHOUSE_USER", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
		},
		Kafka: Kafka{
			Bootstrap:     getList("KAFKA_BOOTSTRAP", "redpanda:29092"),
			GroupID:       getEnv("KAFKA_GROUP_ID", "cdc-consumer-group"),
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
			TLSEnabled:    getBool("KAFKA_TLS_ENABLED", false, &errs),
			TLSSkipVerify: getBool("KAFKA_TLS_SKIP_VERIFY", false, &errs),
			TLSCAFile:     getEnv("KAFKA_TLS_CA_FILE", ""),
		},
		EventRatePerSecond: getFloat("EVENT_RATE_PER_SECOND", 10, &errs),
		HealthInterval:     getSeconds("HEALTH_INTERVAL_SECONDS", 10, &errs),
		ConnectorsFile:     getEnv("CONNECTORS_FILE", ""),
		FlushInterval:      getSeconds("FLUSH_INTERVAL_SECONDS", 4, &errs),
		MaxBatchEvents:     getInt("MAX_BATCH_EVENTS", 200, &errs),
		MaxBatchHealth:     getInt("MAX_BATCH_HEALTH", 10, &errs),
		Tenants:            getList("TENANTS", "acme-corp,buildright-construction"),
		ConnectURL:         getEnv("KAFKA_CONNECT_URL", "http://debezium-connect:8083"),
		ConnectorName:      getEnv("DEBEZIUM_CONNECTOR", "cloudgate-mysql-connector"),
		VerifyWindow:       getSeconds("VERIFY_WINDOW_SECONDS", 600, &errs),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MetricsAddr:        getEnv("METRICS_ADDR", ":9090"),
	}

	if cfg.IngestMode != ModeCDC && cfg.IngestMode != ModeDirect {
		errs = append(errs, fmt.Sprintf("INGEST_MODE must be %q or %q, got %q",
			ModeCDC, ModeDirect, cfg.IngestMode))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64, errs *[]string) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return f
}

func getBool(key string, fallback bool, errs *[]string) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return b
}

func getSeconds(key string, fallback int, errs *[]string) time.Duration {
	return time.Duration(getInt(key, fallback, errs)) * time.Second
}

func getList(key, fallback string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
