package datagen

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteCSV(t *testing.T) {
	g := NewGenerator(testTopology(), 42)
	d := g.Generate(2)

	dir := filepath.Join(t.TempDir(), "output")
	counts, err := d.WriteCSV(dir)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	expect := map[string]int{
		"dim_tenants.csv":           len(d.Tenants),
		"dim_persons.csv":           len(d.Persons),
		"dim_entitlements.csv":      len(d.Entitlements),
		"fact_access_events.csv":    len(d.AccessEvents),
		"fact_connector_health.csv": len(d.ConnectorHealth),
	}
	for name, want := range expect {
		if counts[name] != want {
			t.Errorf("%s count = %d, want %d", name, counts[name], want)
		}
	}

	// Spot-check one file: header plus one row per record.
	f, err := os.Open(filepath.Join(dir, "fact_access_events.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = f.Close()
	}()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(d.AccessEvents)+1 {
		t.Fatalf("rows = %d, want %d", len(rows), len(d.AccessEvents)+1)
	}
	if rows[0][0] != "event_id" || rows[0][8] != "suspicious" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	for _, row := range rows[1:] {
		if len(row) != len(accessEventHeader) {
			t.Fatalf("row width = %d, want %d", len(row), len(accessEventHeader))
		}
	}
}

func TestLoadTopology(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `general:
  historyDays: 7
  randomSeed: 42
  outputDir: out
tenants:
  - id: acme-corp
    name: Acme Corporation
    industry: Technology
    employeeCount: 10
    contractorCount: 2
    denyRate: 0.05
denyReasons:
  - code: NO_ACCESS
    weight: 1.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	topo, err := LoadTopology(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if topo.General.HistoryDays != 7 || topo.General.RandomSeed != 42 {
		t.Errorf("general section wrong: %+v", topo.General)
	}
	if len(topo.Tenants) != 1 || topo.Tenants[0].ID != "acme-corp" {
		t.Errorf("tenants wrong: %+v", topo.Tenants)
	}
}

func TestLoadTopologyRejectsEmptyTenants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tenants: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTopology(path); err == nil {
		t.Fatal("expected an error for a topology with no tenants")
	}
}
