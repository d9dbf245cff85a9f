// Package opstore writes generated rows into the MySQL operational store,
// where the Debezium connector picks them up for CDC replication.
package opstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/slysik/piam-dashboard/internal/config"
	"github.com/slysik/piam-dashboard/internal/model"
)

// accessEventRecord mirrors the cg_access_event table.
type accessEventRecord struct {
	EventID          string    `gorm:"column:event_id;primaryKey"`
	TenantID         string    `gorm:"column:tenant_id"`
	EventTime        time.Time `gorm:"column:event_time"`
	PersonID         string    `gorm:"column:person_id"`
	BadgeID          string    `gorm:"column:badge_id"`
	SiteID           string    `gorm:"column:site_id"`
	LocationID       string    `gorm:"column:location_id"`
	Direction        string    `gorm:"column:direction"`
	Result           string    `gorm:"column:result"`
	EventType        string    `gorm:"column:event_type"`
	DenyReason       string    `gorm:"column:deny_reason"`
	DenyCode         string    `gorm:"column:deny_code"`
	PACSSource       string    `gorm:"column:pacs_source"`
	PACSEventID      string    `gorm:"column:pacs_event_id"`
	RawPayload       string    `gorm:"column:raw_payload"`
	SuspiciousFlag   uint8     `gorm:"column:suspicious_flag"`
	SuspiciousReason string    `gorm:"column:suspicious_reason"`
	SuspiciousScore  float64   `gorm:"column:suspicious_score"`
}

func (accessEventRecord) TableName() string { return "cg_access_event" }

// connectorHealthRecord mirrors the cg_connector_health table.
type connectorHealthRecord struct {
	ID                 uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID           string    `gorm:"column:tenant_id"`
	ConnectorID        string    `gorm:"column:connector_id"`
	ConnectorName      string    `gorm:"column:connector_name"`
	PACSType           string    `gorm:"column:pacs_type"`
	PACSVersion        string    `gorm:"column:pacs_version"`
	CheckTime          time.Time `gorm:"column:check_time"`
	Status             string    `gorm:"column:status"`
	LatencyMS          int32     `gorm:"column:latency_ms"`
	EventsPerMinute    int32     `gorm:"column:events_per_minute"`
	ErrorCount1h       int32     `gorm:"column:error_count_1h"`
	LastEventTime      time.Time `gorm:"column:last_event_time"`
	ErrorMessage       string    `gorm:"column:error_message"`
	ErrorCode          string    `gorm:"column:error_code"`
	EndpointURL        string    `gorm:"column:endpoint_url"`
	LastSuccessfulSync time.Time `gorm:"column:last_successful_sync"`
}

func (connectorHealthRecord) TableName() string { return "cg_connector_health" }

// Store is a gorm-backed writer for the operational tables.
type Store struct {
	db *gorm.DB
}

// Open connects to MySQL and verifies the connection.
func Open(cfg config.MySQL) (*Store, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("mysql open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	return &Store{db: db}, nil
}

// WriteAccessEvent inserts one access event row.
func (s *Store) WriteAccessEvent(ctx context.Context, row model.AccessEventRow) error {
	rec := accessEventRecord{
		EventID:          row.EventID,
		TenantID:         row.TenantID,
		EventTime:        row.EventTime,
		PersonID:         row.PersonID,
		BadgeID:          row.BadgeID,
		SiteID:           row.SiteID,
		LocationID:       row.LocationID,
		Direction:        row.Direction,
		Result:           row.Result,
		EventType:        row.EventType,
		DenyReason:       row.DenyReason,
		DenyCode:         row.DenyCode,
		PACSSource:       row.PACSSource,
		PACSEventID:      row.PACSEventID,
		RawPayload:       row.RawPayload,
		SuspiciousFlag:   row.SuspiciousFlag,
		SuspiciousReason: row.SuspiciousReason,
		SuspiciousScore:  row.SuspiciousScore,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert cg_access_event: %w", err)
	}
	return nil
}

// WriteConnectorHealth inserts one connector health row.
func (s *Store) WriteConnectorHealth(ctx context.Context, row model.ConnectorHealthRow) error {
	rec := connectorHealthRecord{
		TenantID:           row.TenantID,
		ConnectorID:        row.ConnectorID,
		ConnectorName:      row.ConnectorName,
		PACSType:           row.PACSType,
		PACSVersion:        row.PACSVersion,
		CheckTime:          row.CheckTime,
		Status:             row.Status,
		LatencyMS:          row.LatencyMS,
		EventsPerMinute:    row.EventsPerMinute,
		ErrorCount1h:       row.ErrorCount1h,
		LastEventTime:      row.LastEventTime,
		ErrorMessage:       row.ErrorMessage,
		ErrorCode:          row.ErrorCode,
		EndpointURL:        row.EndpointURL,
		LastSuccessfulSync: row.LastSuccessfulSync,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert cg_connector_health: %w", err)
	}
	return nil
}

// Ping verifies the connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
