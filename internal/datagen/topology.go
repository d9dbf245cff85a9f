// Package datagen generates seeded historical dimension and fact data as
// CSV files for bulk loading into the analytical store.
package datagen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Topology is the YAML description of the demo world: tenants down to
// individual doors, plus global deny reasons and compliance requirements.
type Topology struct {
	General struct {
		HistoryDays int    `yaml:"historyDays"`
		RandomSeed  int64  `yaml:"randomSeed"`
		OutputDir   string `yaml:"outputDir"`
	} `yaml:"general"`
	Tenants                []TenantSpec      `yaml:"tenants"`
	DenyReasons            []DenyReasonSpec  `yaml:"denyReasons"`
	ComplianceRequirements []RequirementSpec `yaml:"complianceRequirements"`
}

// TenantSpec describes one tenant and its physical hierarchy.
type TenantSpec struct {
	ID              string           `yaml:"id"`
	Name            string           `yaml:"name"`
	Industry        string           `yaml:"industry"`
	EmployeeCount   int              `yaml:"employeeCount"`
	ContractorCount int              `yaml:"contractorCount"`
	DenyRate        float64          `yaml:"denyRate"`
	Departments     []DepartmentSpec `yaml:"departments"`
	Sites           []SiteSpec       `yaml:"sites"`
}

// DepartmentSpec weights employee assignment across departments.
type DepartmentSpec struct {
	Name         string  `yaml:"name"`
	HeadcountPct float64 `yaml:"headcountPct"`
}

// SiteSpec describes one physical site.
type SiteSpec struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	City      string         `yaml:"city"`
	State     string         `yaml:"state"`
	Country   string         `yaml:"country"`
	Timezone  string         `yaml:"timezone"`
	Buildings []BuildingSpec `yaml:"buildings"`
}

// BuildingSpec holds the floors and the connectors serving a building.
type BuildingSpec struct {
	Name       string          `yaml:"name"`
	Connectors []ConnectorSpec `yaml:"connectors"`
	Floors     []FloorSpec     `yaml:"floors"`
}

// ConnectorSpec describes a PACS connector and its health profile.
type ConnectorSpec struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Profile string `yaml:"profile"` // stable, degraded, or flaky
}

// FloorSpec is one floor of doors.
type FloorSpec struct {
	FloorNumber int        `yaml:"floorNumber"`
	Doors       []DoorSpec `yaml:"doors"`
}

// DoorSpec describes one controlled door.
type DoorSpec struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	DoorType      string `yaml:"doorType"`
	SecurityLevel string `yaml:"securityLevel"` // low, medium, high, critical
}

// DenyReasonSpec weights deny reason selection.
type DenyReasonSpec struct {
	Code   string  `yaml:"code"`
	Weight float64 `yaml:"weight"`
}

// RequirementSpec is one compliance requirement checked weekly.
type RequirementSpec struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

// LoadTopology reads and validates a topology file.
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology: %w", err)
	}
	var topo Topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("parse topology: %w", err)
	}
	if len(topo.Tenants) == 0 {
		return nil, fmt.Errorf("topology %s defines no tenants", path)
	}
	if topo.General.HistoryDays <= 0 {
		topo.General.HistoryDays = 30
	}
	if topo.General.OutputDir == "" {
		topo.General.OutputDir = "output"
	}
	return &topo, nil
}
