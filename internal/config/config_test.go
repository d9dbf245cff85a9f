package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.IngestMode != ModeCDC {
		t.Errorf("default ingest mode = %q, want %q", cfg.IngestMode, ModeCDC)
	}
	if cfg.MySQL.Host != "mysql" || cfg.MySQL.Port != 3306 {
		t.Errorf("mysql defaults wrong: %+v", cfg.MySQL)
	}
	if cfg.ClickHouse.Addr() != "clickhouse:9000" {
		t.Errorf("clickhouse addr = %q", cfg.ClickHouse.Addr())
	}
	if len(cfg.Kafka.Bootstrap) != 1 || cfg.Kafka.Bootstrap[0] != "redpanda:29092" {
		t.Errorf("kafka bootstrap = %v", cfg.Kafka.Bootstrap)
	}
	if cfg.FlushInterval != 4*time.Second {
		t.Errorf("flush interval = %v, want 4s", cfg.FlushInterval)
	}
	if cfg.MaxBatchEvents != 200 || cfg.MaxBatchHealth != 10 {
		t.Errorf("batch sizes = %d/%d, want 200/10", cfg.MaxBatchEvents, cfg.MaxBatchHealth)
	}
	if len(cfg.Tenants) != 2 {
		t.Errorf("default tenants = %v", cfg.Tenants)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INGEST_MODE", "direct")
	t.Setenv("MYSQL_PORT", "3307")
	t.Setenv("KAFKA_BOOTSTRAP", "broker-a:9092, broker-b:9092")
	t.Setenv("FLUSH_INTERVAL_SECONDS", "10")
	t.Setenv("EVENT_RATE_PER_SECOND", "2.5")
	t.Setenv("TENANTS", "acme-corp")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.IngestMode != ModeDirect {
		t.Errorf("ingest mode = %q", cfg.IngestMode)
	}
	if cfg.MySQL.Port != 3307 {
		t.Errorf("mysql port = %d", cfg.MySQL.Port)
	}
	if len(cfg.Kafka.Bootstrap) != 2 || cfg.Kafka.Bootstrap[1] != "broker-b:9092" {
		t.Errorf("bootstrap list not trimmed/split: %v", cfg.Kafka.Bootstrap)
	}
	if cfg.FlushInterval != 10*time.Second {
		t.Errorf("flush interval = %v", cfg.FlushInterval)
	}
	if cfg.EventRatePerSecond != 2.5 {
		t.Errorf("event rate = %v", cfg.EventRatePerSecond)
	}
	if len(cfg.Tenants) != 1 {
		t.Errorf("tenants = %v", cfg.Tenants)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("MAX_BATCH_EVENTS", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("malformed integer should be a configuration error")
	}
}

func TestLoadRejectsUnknownIngestMode(t *testing.T) {
	t.Setenv("INGEST_MODE", "firehose")
	_, err := Load()
	if err == nil {
		t.Fatal("unknown ingest mode should be rejected")
	}
	if !strings.Contains(err.Error(), "INGEST_MODE") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestMySQLDSN(t *testing.T) {
	m := MySQL{Host: "db", Port: 3306, User: "root", Password: "secret", Database: "cloudgate"}
	want := "root:secret@tcp(db:3306)/cloudgate?parseTime=true&charset=utf8mb4"
	if got := m.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
