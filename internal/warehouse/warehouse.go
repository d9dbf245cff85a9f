// Package warehouse writes pipeline rows to the ClickHouse analytical store
// and serves the reference/freshness queries used by the replay and verify
// tools.
package warehouse

import (
	"context"
	"time"

	"github.com/slysik/piam-dashboard/internal/model"
)

// Warehouse is the analytical-store write interface. The consumer commits
// Kafka offsets only after these calls return nil.
type Warehouse interface {
	// InsertAccessEvents bulk-inserts rows into fact_access_events.
	InsertAccessEvents(ctx context.Context, rows []model.AccessEventRow) error

	// InsertConnectorHealth bulk-inserts rows into fact_connector_health.
	InsertConnectorHealth(ctx context.Context, rows []model.ConnectorHealthRow) error

	// Close releases the underlying connection pool.
	Close() error
}

// PersonRef identifies an active person for scenario injection.
type PersonRef struct {
	PersonID    string `ch:"person_id"`
	TenantID    string `ch:"tenant_id"`
	BadgeNumber string `ch:"badge_number"`
}

// LocationRef identifies a door for scenario injection.
type LocationRef struct {
	LocationID string `ch:"location_id"`
	TenantID   string `ch:"tenant_id"`
	SiteID     string `ch:"site_id"`
	DoorName   string `ch:"door_name"`
}

// ConnectorRef identifies a connector for scenario injection.
type ConnectorRef struct {
	ConnectorID   string `ch:"connector_id"`
	TenantID      string `ch:"tenant_id"`
	ConnectorName string `ch:"connector_name"`
	ConnectorType string `ch:"connector_type"`
}

// Freshness summarizes recent rows in a fact table.
type Freshness struct {
	Count  uint64
	Latest time.Time
}
