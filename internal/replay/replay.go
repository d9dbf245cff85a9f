// Package replay injects anomaly scenarios into the analytical store for
// testing dashboards and alerting: deny spikes at one door, suspicious
// same-badge clusters, and connector degradation cycles.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/slysik/piam-dashboard/internal/model"
	"github.com/slysik/piam-dashboard/internal/warehouse"
)

// Defaults per scenario.
const (
	DefaultDenyCount       = 20
	DefaultSuspiciousCount = 5

	refPersonLimit    = 50
	refLocationLimit  = 10
	refConnectorLimit = 10
)

// Store is what the replay tool needs from the warehouse: dimension lookups
// to pick realistic targets, and the fact-table insert paths.
type Store interface {
	DimPersons(ctx context.Context, limit int) ([]warehouse.PersonRef, error)
	DimLocations(ctx context.Context, limit int) ([]warehouse.LocationRef, error)
	DimConnectors(ctx context.Context, limit int) ([]warehouse.ConnectorRef, error)
	InsertAccessEvents(ctx context.Context, rows []model.AccessEventRow) error
	InsertConnectorHealth(ctx context.Context, rows []model.ConnectorHealthRow) error
}

// refData holds the dimension sample the scenarios draw targets from.
type refData struct {
	persons    []warehouse.PersonRef
	locations  []warehouse.LocationRef
	connectors []warehouse.ConnectorRef
}

// Runner executes replay scenarios against a Store.
type Runner struct {
	store  Store
	rng    *rand.Rand
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner creates a Runner. A zero seed uses the current time.
func NewRunner(store Store, seed int64, logger *slog.Logger) *Runner {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:  store,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
		now:    time.Now,
	}
}

func (r *Runner) fetchRefData(ctx context.Context) (refData, error) {
	persons, err := r.store.DimPersons(ctx, refPersonLimit)
	if err != nil {
		return refData{}, fmt.Errorf("fetch persons: %w", err)
	}
	locations, err := r.store.DimLocations(ctx, refLocationLimit)
	if err != nil {
		return refData{}, fmt.Errorf("fetch locations: %w", err)
	}
	connectors, err := r.store.DimConnectors(ctx, refConnectorLimit)
	if err != nil {
		return refData{}, fmt.Errorf("fetch connectors: %w", err)
	}
	r.logger.Info("reference data loaded",
		"persons", len(persons), "locations", len(locations), "connectors", len(connectors))
	return refData{persons: persons, locations: locations, connectors: connectors}, nil
}

// spikeReasons are plausible causes of a broken reader or policy issue. One
// is chosen per spike so every event in the window shares the same reason.
var spikeReasons = []struct {
	reason string
	code   string
}{
	{"INVALID_TIME", "INV_TIME"},
	{"NO_ACCESS", "NO_ACC"},
	{"EXPIRED_BADGE", "EXP_BADGE"},
}

// DenySpike injects count deny events at a single randomly chosen door
// within a 10-minute window centered on now, all with the same deny reason.
func (r *Runner) DenySpike(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		count = DefaultDenyCount
	}
	ref, err := r.fetchRefData(ctx)
	if err != nil {
		return 0, err
	}
	if len(ref.locations) == 0 || len(ref.persons) == 0 {
		return 0, fmt.Errorf("no reference data for deny spike, load dimensions first")
	}

	door := ref.locations[r.rng.Intn(len(ref.locations))]
	persons := personsForTenant(ref.persons, door.TenantID)
	spike := spikeReasons[r.rng.Intn(len(spikeReasons))]

	baseTime := r.now().UTC().Add(-5 * time.Minute)
	rows := make([]model.AccessEventRow, 0, count)
	for i := 0; i < count; i++ {
		person := persons[r.rng.Intn(len(persons))]
		eventTime := baseTime.Add(time.Duration(r.rng.Intn(601)) * time.Second)
		rows = append(rows, model.AccessEventRow{
			EventID:    uuid.NewString(),
			TenantID:   door.TenantID,
			EventTime:  eventTime,
			PersonID:   person.PersonID,
			BadgeID:    person.BadgeNumber,
			SiteID:     door.SiteID,
			LocationID: door.LocationID,
			Direction:  "IN",
			Result:     model.ResultDeny,
			EventType:  "BADGE_SWIPE",
			DenyReason: spike.reason,
			DenyCode:   spike.code,
			PACSSource: "REPLAY",
		})
	}

	if err := r.store.InsertAccessEvents(ctx, rows); err != nil {
		return 0, fmt.Errorf("inject deny spike: %w", err)
	}
	r.logger.Info("deny spike injected",
		"events", count, "door", door.DoorName, "deny_reason", spike.reason,
		"window_start", baseTime.Format(time.TimeOnly),
		"window_end", baseTime.Add(10*time.Minute).Format(time.TimeOnly))
	return count, nil
}

// SuspiciousCluster injects count rapid deny events by one badge across
// multiple doors, 10-30 seconds apart, each flagged suspicious. The spacing
// makes the sequence physically impossible for one person.
func (r *Runner) SuspiciousCluster(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		count = DefaultSuspiciousCount
	}
	ref, err := r.fetchRefData(ctx)
	if err != nil {
		return 0, err
	}
	if len(ref.locations) == 0 || len(ref.persons) == 0 {
		return 0, fmt.Errorf("no reference data for suspicious cluster, load dimensions first")
	}

	suspect := ref.persons[r.rng.Intn(len(ref.persons))]
	locations := locationsForTenant(ref.locations, suspect.TenantID)

	baseTime := r.now().UTC().Add(-2 * time.Minute)
	eventTime := baseTime
	doors := make(map[string]struct{})
	rows := make([]model.AccessEventRow, 0, count)
	for i := 0; i < count; i++ {
		door := locations[r.rng.Intn(len(locations))]
		doors[door.LocationID] = struct{}{}
		rows = append(rows, model.AccessEventRow{
			EventID:          uuid.NewString(),
			TenantID:         suspect.TenantID,
			EventTime:        eventTime,
			PersonID:         suspect.PersonID,
			BadgeID:          suspect.BadgeNumber,
			SiteID:           door.SiteID,
			LocationID:       door.LocationID,
			Direction:        "IN",
			Result:           model.ResultDeny,
			EventType:        "BADGE_SWIPE",
			DenyReason:       "NO_ACCESS",
			DenyCode:         "NO_ACC",
			PACSSource:       "REPLAY",
			SuspiciousFlag:   1,
			SuspiciousReason: "CREDENTIAL_SHARING",
			SuspiciousScore:  0.95,
		})
		eventTime = eventTime.Add(time.Duration(r.rng.Intn(21)+10) * time.Second)
	}

	if err := r.store.InsertAccessEvents(ctx, rows); err != nil {
		return 0, fmt.Errorf("inject suspicious cluster: %w", err)
	}
	r.logger.Info("suspicious cluster injected",
		"events", count, "badge", suspect.BadgeNumber, "doors", len(doors))
	return count, nil
}

// degradationPhases is the health cycle replayed for one connector, spaced
// five minutes apart: healthy, degraded, offline, recovery.
var degradationPhases = []struct {
	status       string
	latencyMS    int32
	errorMessage string
	errorCode    string
}{
	{model.StatusHealthy, 10, "", ""},
	{model.StatusHealthy, 15, "", ""},
	{model.StatusDegraded, 250, "High latency detected", "WARN_LATENCY"},
	{model.StatusDegraded, 400, "Connection timeouts increasing", "WARN_LATENCY"},
	{model.StatusOffline, 0, "Connection lost", "ERR_TIMEOUT"},
	{model.StatusOffline, 0, "Connection lost - retrying", "ERR_TIMEOUT"},
	{model.StatusDegraded, 350, "Connection restored - degraded", "WARN_LATENCY"},
	{model.StatusHealthy, 20, "", ""},
}

// Degradation injects a full degradation cycle for one randomly chosen
// connector, ending at roughly now.
func (r *Runner) Degradation(ctx context.Context) (int, error) {
	ref, err := r.fetchRefData(ctx)
	if err != nil {
		return 0, err
	}
	if len(ref.connectors) == 0 {
		return 0, fmt.Errorf("no connectors for degradation scenario, load dimensions first")
	}

	target := ref.connectors[r.rng.Intn(len(ref.connectors))]
	interval := 5 * time.Minute
	checkTime := r.now().UTC().Add(-time.Duration(len(degradationPhases)) * interval)

	rows := make([]model.ConnectorHealthRow, 0, len(degradationPhases))
	for _, phase := range degradationPhases {
		rows = append(rows, model.ConnectorHealthRow{
			TenantID:           target.TenantID,
			ConnectorID:        target.ConnectorID,
			ConnectorName:      target.ConnectorName,
			PACSType:           target.ConnectorType,
			CheckTime:          checkTime,
			Status:             phase.status,
			LatencyMS:          phase.latencyMS,
			ErrorMessage:       phase.errorMessage,
			ErrorCode:          phase.errorCode,
			LastEventTime:      checkTime,
			LastSuccessfulSync: checkTime,
		})
		checkTime = checkTime.Add(interval)
	}

	if err := r.store.InsertConnectorHealth(ctx, rows); err != nil {
		return 0, fmt.Errorf("inject degradation: %w", err)
	}
	r.logger.Info("connector degradation injected",
		"records", len(rows), "connector", target.ConnectorName,
		"duration", time.Duration(len(rows))*interval)
	return len(rows), nil
}

// All runs every scenario and returns the total records injected. Stops at
// the first failure.
func (r *Runner) All(ctx context.Context, denyCount, suspiciousCount int) (int, error) {
	total := 0
	n, err := r.DenySpike(ctx, denyCount)
	if err != nil {
		return total, err
	}
	total += n
	n, err = r.SuspiciousCluster(ctx, suspiciousCount)
	if err != nil {
		return total, err
	}
	total += n
	n, err = r.Degradation(ctx)
	if err != nil {
		return total, err
	}
	return total + n, nil
}

// personsForTenant prefers same-tenant persons, falling back to the whole
// sample when the tenant has none.
func personsForTenant(persons []warehouse.PersonRef, tenantID string) []warehouse.PersonRef {
	var out []warehouse.PersonRef
	for _, p := range persons {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return persons
	}
	return out
}

// locationsForTenant prefers same-tenant doors, falling back to the whole
// sample when fewer than two match.
func locationsForTenant(locations []warehouse.LocationRef, tenantID string) []warehouse.LocationRef {
	var out []warehouse.LocationRef
	for _, loc := range locations {
		if loc.TenantID == tenantID {
			out = append(out, loc)
		}
	}
	if len(out) < 2 {
		return locations
	}
	return out
}
