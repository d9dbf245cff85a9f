// Package model defines the rows written to the analytical store and the
// fixed table/column layout they map onto.
package model

import "time"

// Analytical fact tables.
const (
	TableAccessEvents    = "fact_access_events"
	TableConnectorHealth = "fact_connector_health"
)

// Access event results.
const (
	ResultGrant = "grant"
	ResultDeny  = "deny"
)

// Connector statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusOffline  = "offline"
)

// AccessEventColumns is the insert column order for fact_access_events.
var AccessEventColumns = []string{
	"event_id", "tenant_id", "event_time", "person_id", "badge_id",
	"site_id", "location_id", "direction", "result", "event_type",
	"deny_reason", "deny_code", "pacs_source", "pacs_event_id",
	"raw_payload", "suspicious_flag", "suspicious_reason", "suspicious_score",
}

// ConnectorHealthColumns is the insert column order for fact_connector_health.
var ConnectorHealthColumns = []string{
	"tenant_id", "connector_id", "connector_name", "pacs_type", "pacs_version",
	"check_time", "status", "latency_ms", "events_per_minute", "error_count_1h",
	"last_event_time", "error_message", "error_code", "endpoint_url",
	"last_successful_sync",
}

// AccessEventRow is a single badge-read attempt. Immutable once emitted.
type AccessEventRow struct {
	EventID          string
	TenantID         string
	EventTime        time.Time
	PersonID         string
	BadgeID          string
	SiteID           string
	LocationID       string
	Direction        string
	Result           string
	EventType        string
	DenyReason       string
	DenyCode         string
	PACSSource       string
	PACSEventID      string
	RawPayload       string
	SuspiciousFlag   uint8
	SuspiciousReason string
	SuspiciousScore  float64
}

// ConnectorHealthRow is a periodic snapshot of a PACS connector's status.
// Immutable once emitted.
type ConnectorHealthRow struct {
	TenantID           string
	ConnectorID        string
	ConnectorName      string
	PACSType           string
	PACSVersion        string
	CheckTime          time.Time
	Status             string
	LatencyMS          int32
	EventsPerMinute    int32
	ErrorCount1h       int32
	LastEventTime      time.Time
	ErrorMessage       string
	ErrorCode          string
	EndpointURL        string
	LastSuccessfulSync time.Time
}
