// Package generator produces synthetic PACS access events and connector
// health snapshots, pacing them into the operational or analytical store.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/slysik/piam-dashboard/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	sites     = []string{"site-hq", "site-east", "site-west"}
	locations = []string{"lobby-main", "lobby-east", "floor-2", "floor-3", "datacenter", "parking-a", "parking-b"}

	// Weighted toward badge swipes.
	eventTypes = []string{"BADGE_SWIPE", "BADGE_SWIPE", "BADGE_SWIPE", "BADGE_SWIPE", "PIN_ENTRY", "BIOMETRIC"}

	cardFormats = []string{"26-bit Wiegand", "34-bit HID", "MIFARE", "iCLASS"}

	suspiciousReasons = []string{"TAILGATING", "UNUSUAL_HOURS", "MULTIPLE_FAILURES", "CREDENTIAL_SHARING"}

	degradedMessages = []string{
		"High latency detected",
		"Connection pool exhaustion warning",
		"Slow response from PACS server",
	}
	offlineMessages = []string{
		"Connection timeout",
		"PACS server unreachable",
		"Authentication failed",
	}
)

type denyReason struct {
	reason string
	code   string
}

var denyReasons = []denyReason{
	{"INVALID_BADGE", "INV_BADGE"},
	{"EXPIRED_BADGE", "EXP_BADGE"},
	{"NO_ENTITLEMENT", "NO_ENT"},
	{"ANTIPASSBACK", "APB"},
	{"SCHEDULE_VIOLATION", "SCHED_VIO"},
}

// Synthesizer generates random access events and health snapshots for a set
// of tenants. Not safe for concurrent use; the run loop owns it.
type Synthesizer struct {
	rng     *rand.Rand
	tenants []string
	now     func() time.Time
}

// NewSynthesizer seeds a synthesizer. A zero seed uses the current time.
func NewSynthesizer(seed int64, tenants []string) *Synthesizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthesizer{
		rng:     rand.New(rand.NewSource(seed)),
		tenants: tenants,
		now:     time.Now,
	}
}

// AccessEvent generates one simulated badge read from the given connector:
// 75% grants, weighted deny reasons, ~5% flagged suspicious.
func (s *Synthesizer) AccessEvent(c Connector) model.AccessEventRow {
	eventID := uuid.NewString()
	tenantID := s.pick(s.tenants)
	eventTime := s.now().UTC()

	personNum := s.rng.Intn(200) + 1
	badgeNum := s.rng.Intn(500) + 1
	locationID := s.pick(locations)

	row := model.AccessEventRow{
		EventID:     eventID,
		TenantID:    tenantID,
		EventTime:   eventTime,
		PersonID:    fmt.Sprintf("PERSON-%s-%d", tenantID, personNum),
		BadgeID:     fmt.Sprintf("BADGE-%s-%d", tenantID, badgeNum),
		SiteID:      s.pick(sites),
		LocationID:  locationID,
		Direction:   s.pick([]string{"IN", "OUT"}),
		Result:      model.ResultGrant,
		EventType:   s.pick(eventTypes),
		PACSSource:  c.PACSType,
		PACSEventID: fmt.Sprintf("%s-%s", c.PACSType, eventID[:8]),
	}

	if s.rng.Float64() >= 0.75 {
		row.Result = model.ResultDeny
		dr := denyReasons[s.rng.Intn(len(denyReasons))]
		row.DenyReason = dr.reason
		row.DenyCode = dr.code
	}

	if s.rng.Float64() < 0.05 {
		row.SuspiciousFlag = 1
		row.SuspiciousReason = s.pick(suspiciousReasons)
		row.SuspiciousScore = roundScore(0.5 + s.rng.Float64()*0.5)
	}

	payload, _ := json.Marshal(map[string]any{
		"source":          c.ID,
		"originalEventId": row.PACSEventID,
		"reader":          fmt.Sprintf("%s-reader-%d", locationID, s.rng.Intn(4)+1),
		"cardFormat":      s.pick(cardFormats),
		"timestamp":       eventTime.Format(time.RFC3339Nano),
		"facilityCode":    s.rng.Intn(900) + 100,
	})
	row.RawPayload = string(payload)

	return row
}

// ConnectorHealth generates one health snapshot for the connector:
// 85% healthy, 10% degraded, 5% offline, with status-appropriate latency
// and error details. eventsGenerated over elapsed determines the reported
// events-per-minute rate.
func (s *Synthesizer) ConnectorHealth(c Connector, eventsGenerated int, elapsed time.Duration) model.ConnectorHealthRow {
	checkTime := s.now().UTC()

	row := model.ConnectorHealthRow{
		TenantID:           s.pick(s.tenants),
		ConnectorID:        c.ID,
		ConnectorName:      c.Name,
		PACSType:           c.PACSType,
		PACSVersion:        c.PACSVersion,
		CheckTime:          checkTime,
		EndpointURL:        c.EndpointURL,
		LastEventTime:      checkTime,
		LastSuccessfulSync: checkTime,
	}

	switch roll := s.rng.Float64(); {
	case roll < 0.85:
		row.Status = model.StatusHealthy
		row.LatencyMS = int32(s.rng.Intn(151) + 50)
	case roll < 0.95:
		row.Status = model.StatusDegraded
		row.LatencyMS = int32(s.rng.Intn(1501) + 500)
		row.ErrorMessage = s.pick(degradedMessages)
		row.ErrorCode = "WARN_LATENCY"
		row.ErrorCount1h = int32(s.rng.Intn(10) + 1)
	default:
		row.Status = model.StatusOffline
		row.LatencyMS = 30000 // timeout
		row.ErrorMessage = s.pick(offlineMessages)
		row.ErrorCode = "ERR_TIMEOUT"
		row.ErrorCount1h = int32(s.rng.Intn(41) + 10)
	}

	if secs := elapsed.Seconds(); secs >= 1 {
		row.EventsPerMinute = int32(float64(eventsGenerated) / secs * 60)
	}

	return row
}

// PickConnector chooses a random connector for the next event.
func (s *Synthesizer) PickConnector(connectors []Connector) Connector {
	return connectors[s.rng.Intn(len(connectors))]
}

func (s *Synthesizer) pick(options []string) string {
	return options[s.rng.Intn(len(options))]
}

func roundScore(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
