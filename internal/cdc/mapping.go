package cdc

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/slysik/piam-dashboard/internal/model"
)

// FieldError reports a required field that was absent or unparseable in a
// change record. Records failing with a FieldError are dropped, not retried.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *FieldError) Unwrap() error { return e.Err }

// IsFieldError reports whether err was caused by a missing or malformed field.
func IsFieldError(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}

// MapAccessEvent maps a cg_access_event change record to a
// fact_access_events row.
func MapAccessEvent(rec Record) (model.AccessEventRow, error) {
	m := mapper{rec: rec}
	row := model.AccessEventRow{
		EventID:          m.requireString("event_id"),
		TenantID:         m.requireString("tenant_id"),
		EventTime:        m.requireTime("event_time"),
		PersonID:         m.optionalString("person_id", ""),
		BadgeID:          m.requireString("badge_id"),
		SiteID:           m.requireString("site_id"),
		LocationID:       m.requireString("location_id"),
		Direction:        m.requireString("direction"),
		Result:           m.requireString("result"),
		EventType:        m.requireString("event_type"),
		DenyReason:       m.optionalString("deny_reason", ""),
		DenyCode:         m.optionalString("deny_code", ""),
		PACSSource:       m.requireString("pacs_source"),
		PACSEventID:      m.requireString("pacs_event_id"),
		RawPayload:       m.optionalString("raw_payload", ""),
		SuspiciousFlag:   m.optionalFlag("suspicious_flag"),
		SuspiciousReason: m.optionalString("suspicious_reason", ""),
		SuspiciousScore:  m.optionalFloat("suspicious_score", 0),
	}
	return row, m.err
}

// MapConnectorHealth maps a cg_connector_health change record to a
// fact_connector_health row. Absent timestamps default to the check time.
func MapConnectorHealth(rec Record) (model.ConnectorHealthRow, error) {
	m := mapper{rec: rec}
	row := model.ConnectorHealthRow{
		TenantID:        m.requireString("tenant_id"),
		ConnectorID:     m.requireString("connector_id"),
		ConnectorName:   m.requireString("connector_name"),
		PACSType:        m.requireString("pacs_type"),
		PACSVersion:     m.optionalString("pacs_version", ""),
		CheckTime:       m.requireTime("check_time"),
		Status:          m.requireString("status"),
		LatencyMS:       m.requireInt("latency_ms"),
		EventsPerMinute: m.requireInt("events_per_minute"),
		ErrorCount1h:    m.optionalInt("error_count_1h", 0),
		ErrorMessage:    m.optionalString("error_message", ""),
		ErrorCode:       m.optionalString("error_code", ""),
		EndpointURL:     m.optionalString("endpoint_url", ""),
	}
	row.LastEventTime = m.optionalTime("last_event_time", row.CheckTime)
	row.LastSuccessfulSync = m.optionalTime("last_successful_sync", row.CheckTime)
	return row, m.err
}

// mapper accumulates the first field error while extracting values, so call
// sites read as a flat field list.
type mapper struct {
	rec Record
	err error
}

func (m *mapper) fail(field string, err error) {
	if m.err == nil {
		m.err = &FieldError{Field: field, Err: err}
	}
}

func (m *mapper) requireString(field string) string {
	v, ok := m.rec[field]
	if !ok || v == nil {
		m.fail(field, nil)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		m.fail(field, fmt.Errorf("expected string, got %T", v))
		return ""
	}
	return s
}

func (m *mapper) optionalString(field, def string) string {
	if v, ok := m.rec[field].(string); ok {
		return v
	}
	return def
}

func (m *mapper) requireTime(field string) time.Time {
	v, ok := m.rec[field]
	if !ok || v == nil {
		m.fail(field, nil)
		return time.Time{}
	}
	t, err := coerceTime(v)
	if err != nil {
		m.fail(field, err)
		return time.Time{}
	}
	return t
}

func (m *mapper) optionalTime(field string, def time.Time) time.Time {
	v, ok := m.rec[field]
	if !ok || v == nil {
		return def
	}
	t, err := coerceTime(v)
	if err != nil {
		return def
	}
	return t
}

func (m *mapper) requireInt(field string) int32 {
	v, ok := m.rec[field]
	if !ok || v == nil {
		m.fail(field, nil)
		return 0
	}
	n, err := coerceInt(v)
	if err != nil {
		m.fail(field, err)
		return 0
	}
	return n
}

func (m *mapper) optionalInt(field string, def int32) int32 {
	v, ok := m.rec[field]
	if !ok || v == nil {
		return def
	}
	n, err := coerceInt(v)
	if err != nil {
		return def
	}
	return n
}

func (m *mapper) optionalFloat(field string, def float64) float64 {
	if v, ok := m.rec[field].(float64); ok {
		return v
	}
	return def
}

// optionalFlag treats any non-zero numeric or true boolean as a set flag.
func (m *mapper) optionalFlag(field string) uint8 {
	switch v := m.rec[field].(type) {
	case float64:
		if v != 0 {
			return 1
		}
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// timeLayouts are the textual timestamp formats seen in Debezium JSON,
// depending on the connector's temporal converter settings.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// coerceTime accepts epoch milliseconds or microseconds (Debezium numeric
// temporal types) and the common textual layouts.
func coerceTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case float64:
		n := int64(t)
		// Epoch micros for any modern date exceed 1e14; epoch millis
		// stay far below it. Disambiguate on magnitude.
		if n > 1e14 {
			return time.UnixMicro(n).UTC(), nil
		}
		return time.UnixMilli(n).UTC(), nil
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", t)
	default:
		return time.Time{}, fmt.Errorf("expected timestamp, got %T", v)
	}
}

func coerceInt(v any) (int32, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("value %v out of int32 range", f)
	}
	return int32(f), nil
}
