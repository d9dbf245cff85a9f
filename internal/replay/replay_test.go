package replay

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/slysik/piam-dashboard/internal/model"
	"github.com/slysik/piam-dashboard/internal/warehouse"
)

// memStore serves canned dimension data and records inserts.
type memStore struct {
	persons    []warehouse.PersonRef
	locations  []warehouse.LocationRef
	connectors []warehouse.ConnectorRef

	events []model.AccessEventRow
	health []model.ConnectorHealthRow
}

func (s *memStore) DimPersons(context.Context, int) ([]warehouse.PersonRef, error) {
	return s.persons, nil
}

func (s *memStore) DimLocations(context.Context, int) ([]warehouse.LocationRef, error) {
	return s.locations, nil
}

func (s *memStore) DimConnectors(context.Context, int) ([]warehouse.ConnectorRef, error) {
	return s.connectors, nil
}

func (s *memStore) InsertAccessEvents(_ context.Context, rows []model.AccessEventRow) error {
	s.events = append(s.events, rows...)
	return nil
}

func (s *memStore) InsertConnectorHealth(_ context.Context, rows []model.ConnectorHealthRow) error {
	s.health = append(s.health, rows...)
	return nil
}

func populatedStore() *memStore {
	return &memStore{
		persons: []warehouse.PersonRef{
			{PersonID: "acme-corp-emp-0001", TenantID: "acme-corp", BadgeNumber: "B100001"},
			{PersonID: "acme-corp-emp-0002", TenantID: "acme-corp", BadgeNumber: "B100002"},
			{PersonID: "buildright-emp-0001", TenantID: "buildright-construction", BadgeNumber: "B200001"},
		},
		locations: []warehouse.LocationRef{
			{LocationID: "door-lobby", TenantID: "acme-corp", SiteID: "acme-hq", DoorName: "Lobby"},
			{LocationID: "door-lab", TenantID: "acme-corp", SiteID: "acme-hq", DoorName: "Lab"},
			{LocationID: "door-yard", TenantID: "buildright-construction", SiteID: "br-site", DoorName: "Yard"},
		},
		connectors: []warehouse.ConnectorRef{
			{ConnectorID: "lenel-primary", TenantID: "acme-corp", ConnectorName: "Lenel Primary", ConnectorType: "LENEL"},
		},
	}
}

func testRunner(store Store) *Runner {
	return NewRunner(store, 42, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDenySpike(t *testing.T) {
	store := populatedStore()
	r := testRunner(store)

	n, err := r.DenySpike(context.Background(), 20)
	if err != nil {
		t.Fatalf("deny spike failed: %v", err)
	}
	if n != 20 || len(store.events) != 20 {
		t.Fatalf("injected %d events, store has %d", n, len(store.events))
	}

	first := store.events[0]
	windowStart := time.Now().UTC().Add(-6 * time.Minute)
	windowEnd := time.Now().UTC().Add(6 * time.Minute)
	for _, e := range store.events {
		if e.Result != model.ResultDeny {
			t.Fatalf("spike event not a deny: %+v", e)
		}
		if e.LocationID != first.LocationID {
			t.Error("all spike events must target the same door")
		}
		if e.DenyReason != first.DenyReason {
			t.Error("all spike events must share one deny reason")
		}
		if e.TenantID != first.TenantID {
			t.Error("spike events must stay within one tenant")
		}
		if e.EventTime.Before(windowStart) || e.EventTime.After(windowEnd) {
			t.Errorf("event time %v outside the spike window", e.EventTime)
		}
		if e.EventID == "" || e.BadgeID == "" {
			t.Errorf("incomplete event: %+v", e)
		}
	}
}

func TestSuspiciousCluster(t *testing.T) {
	store := populatedStore()
	r := testRunner(store)

	n, err := r.SuspiciousCluster(context.Background(), 5)
	if err != nil {
		t.Fatalf("suspicious cluster failed: %v", err)
	}
	if n != 5 || len(store.events) != 5 {
		t.Fatalf("injected %d events, store has %d", n, len(store.events))
	}

	first := store.events[0]
	prev := time.Time{}
	for i, e := range store.events {
		if e.BadgeID != first.BadgeID || e.PersonID != first.PersonID {
			t.Fatal("cluster events must share one badge")
		}
		if e.SuspiciousFlag != 1 || e.SuspiciousReason == "" {
			t.Errorf("event %d not flagged suspicious: %+v", i, e)
		}
		if e.Result != model.ResultDeny {
			t.Errorf("cluster event %d not a deny", i)
		}
		if i > 0 {
			gap := e.EventTime.Sub(prev)
			if gap < 10*time.Second || gap > 30*time.Second {
				t.Errorf("gap between events %d and %d is %v, want 10-30s", i-1, i, gap)
			}
		}
		prev = e.EventTime
	}
}

func TestDegradation(t *testing.T) {
	store := populatedStore()
	r := testRunner(store)

	n, err := r.Degradation(context.Background())
	if err != nil {
		t.Fatalf("degradation failed: %v", err)
	}
	if n != len(degradationPhases) || len(store.health) != n {
		t.Fatalf("injected %d records, store has %d", n, len(store.health))
	}

	wantStatuses := []string{
		model.StatusHealthy, model.StatusHealthy,
		model.StatusDegraded, model.StatusDegraded,
		model.StatusOffline, model.StatusOffline,
		model.StatusDegraded, model.StatusHealthy,
	}
	for i, h := range store.health {
		if h.Status != wantStatuses[i] {
			t.Errorf("phase %d status = %q, want %q", i, h.Status, wantStatuses[i])
		}
		if h.ConnectorID != "lenel-primary" {
			t.Errorf("phase %d wrong connector %q", i, h.ConnectorID)
		}
		if h.Status != model.StatusHealthy && h.ErrorMessage == "" {
			t.Errorf("phase %d unhealthy without error message", i)
		}
		if i > 0 {
			if gap := h.CheckTime.Sub(store.health[i-1].CheckTime); gap != 5*time.Minute {
				t.Errorf("phase spacing = %v, want 5m", gap)
			}
		}
	}
}

func TestAllRunsEveryScenario(t *testing.T) {
	store := populatedStore()
	r := testRunner(store)

	total, err := r.All(context.Background(), 10, 4)
	if err != nil {
		t.Fatalf("all scenarios failed: %v", err)
	}
	want := 10 + 4 + len(degradationPhases)
	if total != want {
		t.Errorf("total = %d, want %d", total, want)
	}
	if len(store.events) != 14 || len(store.health) != len(degradationPhases) {
		t.Errorf("store contents: %d events, %d health", len(store.events), len(store.health))
	}
}

func TestScenariosRequireReferenceData(t *testing.T) {
	r := testRunner(&memStore{})
	if _, err := r.DenySpike(context.Background(), 5); err == nil {
		t.Error("deny spike without dimensions should fail")
	}
	if _, err := r.SuspiciousCluster(context.Background(), 5); err == nil {
		t.Error("suspicious cluster without dimensions should fail")
	}
	if _, err := r.Degradation(context.Background()); err == nil {
		t.Error("degradation without connectors should fail")
	}
}
