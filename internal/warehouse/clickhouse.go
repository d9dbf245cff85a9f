package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/slysik/piam-dashboard/internal/config"
	"github.com/slysik/piam-dashboard/internal/model"
)

// Client is the ClickHouse-backed Warehouse implementation.
type Client struct {
	conn driver.Conn
}

var _ Warehouse = (*Client)(nil)

// Open connects to ClickHouse over the native protocol and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg config.ClickHouse) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr()},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &Client{conn: conn}, nil
}

// InsertAccessEvents bulk-inserts access events in a single batch.
func (c *Client) InsertAccessEvents(ctx context.Context, rows []model.AccessEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, insertStmt(model.TableAccessEvents, model.AccessEventColumns))
	if err != nil {
		return fmt.Errorf("prepare %s batch: %w", model.TableAccessEvents, err)
	}
	for _, row := range rows {
		err := batch.Append(
			row.EventID, row.TenantID, row.EventTime, row.PersonID, row.BadgeID,
			row.SiteID, row.LocationID, row.Direction, row.Result, row.EventType,
			row.DenyReason, row.DenyCode, row.PACSSource, row.PACSEventID,
			row.RawPayload, row.SuspiciousFlag, row.SuspiciousReason, row.SuspiciousScore,
		)
		if err != nil {
			return fmt.Errorf("append %s row: %w", model.TableAccessEvents, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("insert %s: %w", model.TableAccessEvents, err)
	}
	return nil
}

// InsertConnectorHealth bulk-inserts connector health rows in a single batch.
func (c *Client) InsertConnectorHealth(ctx context.Context, rows []model.ConnectorHealthRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, insertStmt(model.TableConnectorHealth, model.ConnectorHealthColumns))
	if err != nil {
		return fmt.Errorf("prepare %s batch: %w", model.TableConnectorHealth, err)
	}
	for _, row := range rows {
		err := batch.Append(
			row.TenantID, row.ConnectorID, row.ConnectorName, row.PACSType, row.PACSVersion,
			row.CheckTime, row.Status, row.LatencyMS, row.EventsPerMinute, row.ErrorCount1h,
			row.LastEventTime, row.ErrorMessage, row.ErrorCode, row.EndpointURL,
			row.LastSuccessfulSync,
		)
		if err != nil {
			return fmt.Errorf("append %s row: %w", model.TableConnectorHealth, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("insert %s: %w", model.TableConnectorHealth, err)
	}
	return nil
}

// DimPersons returns up to limit active persons from the person dimension.
func (c *Client) DimPersons(ctx context.Context, limit int) ([]PersonRef, error) {
	var out []PersonRef
	query := fmt.Sprintf(
		"SELECT person_id, tenant_id, badge_number FROM dim_persons WHERE status = 'active' LIMIT %d", limit)
	if err := c.conn.Select(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("select dim_persons: %w", err)
	}
	return out, nil
}

// DimLocations returns up to limit doors from the location dimension.
func (c *Client) DimLocations(ctx context.Context, limit int) ([]LocationRef, error) {
	var out []LocationRef
	query := fmt.Sprintf(
		"SELECT location_id, tenant_id, site_id, door_name FROM dim_locations LIMIT %d", limit)
	if err := c.conn.Select(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("select dim_locations: %w", err)
	}
	return out, nil
}

// DimConnectors returns up to limit connectors from the connector dimension.
func (c *Client) DimConnectors(ctx context.Context, limit int) ([]ConnectorRef, error) {
	var out []ConnectorRef
	query := fmt.Sprintf(
		"SELECT connector_id, tenant_id, connector_name, connector_type FROM dim_connectors LIMIT %d", limit)
	if err := c.conn.Select(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("select dim_connectors: %w", err)
	}
	return out, nil
}

// TableFreshness reports the row count and newest timestamp in a fact table
// over the trailing window.
func (c *Client) TableFreshness(ctx context.Context, table, timeColumn string, window time.Duration) (Freshness, error) {
	query := fmt.Sprintf(
		"SELECT count() AS cnt, max(%s) AS latest FROM %s WHERE %s > now() - INTERVAL %d SECOND",
		timeColumn, table, timeColumn, int(window.Seconds()))

	var f Freshness
	if err := c.conn.QueryRow(ctx, query).Scan(&f.Count, &f.Latest); err != nil {
		return Freshness{}, fmt.Errorf("freshness query %s: %w", table, err)
	}
	return f, nil
}

// Ping verifies the connection is still usable.
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.conn.Close()
}

func insertStmt(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", "))
}
