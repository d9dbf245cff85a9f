package generator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultFleet(t *testing.T) {
	fleet, err := NewFleet("", nil)
	if err != nil {
		t.Fatalf("default fleet failed: %v", err)
	}
	connectors := fleet.Connectors()
	if len(connectors) != 4 {
		t.Fatalf("expected 4 built-in connectors, got %d", len(connectors))
	}
	types := map[string]bool{}
	for _, c := range connectors {
		if c.ID == "" || c.PACSType == "" || c.EndpointURL == "" {
			t.Errorf("incomplete connector: %+v", c)
		}
		types[c.PACSType] = true
	}
	for _, want := range []string{"LENEL", "CCURE", "S2", "GENETEC"} {
		if !types[want] {
			t.Errorf("missing %s connector", want)
		}
	}
}

func TestNewFleetFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connectors.yaml")
	content := `connectors:
  - id: lenel-lab
    name: Lenel Lab
    pacsType: LENEL
    pacsVersion: "7.8"
    endpointUrl: https://lenel-lab.local/api
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fleet, err := NewFleet(path, nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	connectors := fleet.Connectors()
	if len(connectors) != 1 || connectors[0].ID != "lenel-lab" {
		t.Fatalf("unexpected fleet: %+v", connectors)
	}
}

func TestNewFleetRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty fleet", "connectors: []\n"},
		{"missing id", "connectors:\n  - name: Nameless\n    pacsType: LENEL\n"},
		{"missing pacs type", "connectors:\n  - id: x\n    name: X\n"},
		{"malformed yaml", "connectors: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "connectors.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewFleet(path, nil); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConnectorsReturnsSnapshot(t *testing.T) {
	fleet, err := NewFleet("", nil)
	if err != nil {
		t.Fatal(err)
	}
	snapshot := fleet.Connectors()
	snapshot[0].ID = "mutated"
	if fleet.Connectors()[0].ID == "mutated" {
		t.Error("Connectors must return a copy")
	}
}
