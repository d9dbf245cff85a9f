package cdc

import (
	"testing"
	"time"
)

func validEventRecord() Record {
	return Record{
		"event_id":      "e1",
		"tenant_id":     "acme-corp",
		"event_time":    "2026-02-11 09:15:00",
		"person_id":     "PERSON-acme-corp-17",
		"badge_id":      "BADGE-acme-corp-42",
		"site_id":       "site-hq",
		"location_id":   "lobby-main",
		"direction":     "IN",
		"result":        "GRANT",
		"event_type":    "BADGE_SWIPE",
		"pacs_source":   "LENEL",
		"pacs_event_id": "LENEL-1",
	}
}

func validHealthRecord() Record {
	return Record{
		"tenant_id":         "acme-corp",
		"connector_id":      "lenel-primary",
		"connector_name":    "Lenel Primary",
		"pacs_type":         "LENEL",
		"check_time":        "2026-02-11 09:15:00",
		"status":            "healthy",
		"latency_ms":        42.0,
		"events_per_minute": 120.0,
	}
}

func TestMapAccessEvent(t *testing.T) {
	rec := validEventRecord()
	rec["suspicious_flag"] = 1.0
	rec["suspicious_reason"] = "TAILGATING"
	rec["suspicious_score"] = 0.87

	row, err := MapAccessEvent(rec)
	if err != nil {
		t.Fatalf("mapping failed: %v", err)
	}
	if row.EventID != "e1" || row.TenantID != "acme-corp" {
		t.Errorf("identity fields wrong: %+v", row)
	}
	want := time.Date(2026, 2, 11, 9, 15, 0, 0, time.UTC)
	if !row.EventTime.Equal(want) {
		t.Errorf("event time = %v, want %v", row.EventTime, want)
	}
	if row.SuspiciousFlag != 1 || row.SuspiciousReason != "TAILGATING" || row.SuspiciousScore != 0.87 {
		t.Errorf("suspicious fields wrong: %+v", row)
	}
}

func TestMapAccessEventOptionalDefaults(t *testing.T) {
	row, err := MapAccessEvent(validEventRecord())
	if err != nil {
		t.Fatalf("mapping failed: %v", err)
	}
	if row.DenyReason != "" || row.DenyCode != "" {
		t.Errorf("grant should have empty deny fields: %+v", row)
	}
	if row.SuspiciousFlag != 0 || row.SuspiciousScore != 0 {
		t.Errorf("suspicious defaults wrong: %+v", row)
	}
}

func TestMapAccessEventMissingRequiredField(t *testing.T) {
	for _, field := range []string{"event_id", "tenant_id", "event_time", "result"} {
		t.Run(field, func(t *testing.T) {
			rec := validEventRecord()
			delete(rec, field)
			_, err := MapAccessEvent(rec)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !IsFieldError(err) {
				t.Errorf("expected a field error, got %v", err)
			}
		})
	}
}

func TestMapConnectorHealth(t *testing.T) {
	rec := validHealthRecord()
	rec["error_count_1h"] = 3.0
	rec["last_event_time"] = "2026-02-11 09:14:30"

	row, err := MapConnectorHealth(rec)
	if err != nil {
		t.Fatalf("mapping failed: %v", err)
	}
	if row.LatencyMS != 42 || row.EventsPerMinute != 120 || row.ErrorCount1h != 3 {
		t.Errorf("numeric fields wrong: %+v", row)
	}
	want := time.Date(2026, 2, 11, 9, 14, 30, 0, time.UTC)
	if !row.LastEventTime.Equal(want) {
		t.Errorf("last event time = %v, want %v", row.LastEventTime, want)
	}
	// Absent sync timestamp defaults to the check time.
	if !row.LastSuccessfulSync.Equal(row.CheckTime) {
		t.Errorf("sync time should default to check time: %+v", row)
	}
}

func TestMapConnectorHealthMissingRequiredField(t *testing.T) {
	rec := validHealthRecord()
	delete(rec, "latency_ms")
	if _, err := MapConnectorHealth(rec); !IsFieldError(err) {
		t.Fatalf("expected a field error, got %v", err)
	}
}

func TestCoerceTime(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Time
	}{
		{"epoch millis", 1770801300000.0, time.Date(2026, 2, 11, 9, 15, 0, 0, time.UTC)},
		{"epoch micros", 1770801300000000.0, time.Date(2026, 2, 11, 9, 15, 0, 0, time.UTC)},
		{"rfc3339", "2026-02-11T09:15:00Z", time.Date(2026, 2, 11, 9, 15, 0, 0, time.UTC)},
		{"iso no zone", "2026-02-11T09:15:00", time.Date(2026, 2, 11, 9, 15, 0, 0, time.UTC)},
		{"mysql datetime", "2026-02-11 09:15:00", time.Date(2026, 2, 11, 9, 15, 0, 0, time.UTC)},
		{"mysql micros", "2026-02-11 09:15:00.250000", time.Date(2026, 2, 11, 9, 15, 0, 250000000, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceTime(tt.value)
			if err != nil {
				t.Fatalf("coerceTime(%v) failed: %v", tt.value, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("coerceTime(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	for _, bad := range []any{"yesterday", true, []any{}} {
		if _, err := coerceTime(bad); err == nil {
			t.Errorf("coerceTime(%v) should fail", bad)
		}
	}
}

func TestCoerceIntRange(t *testing.T) {
	if _, err := coerceInt(3e10); err == nil {
		t.Error("out-of-range value should fail")
	}
	n, err := coerceInt(30000.0)
	if err != nil || n != 30000 {
		t.Errorf("coerceInt(30000) = %d, %v", n, err)
	}
}
