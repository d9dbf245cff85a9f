package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// FileCounts maps output file names to the number of rows written.
type FileCounts map[string]int

// WriteCSV writes the whole dataset as CSV files under dir, one file per
// table, creating dir if needed. Returns row counts per file.
func (d *Dataset) WriteCSV(dir string) (FileCounts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	counts := make(FileCounts)
	write := func(name string, header []string, rows [][]string) error {
		if err := writeFile(filepath.Join(dir, name), header, rows); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		counts[name] = len(rows)
		return nil
	}

	if err := write("dim_tenants.csv", tenantHeader, records(d.Tenants, Tenant.record)); err != nil {
		return nil, err
	}
	if err := write("dim_sites.csv", siteHeader, records(d.Sites, Site.record)); err != nil {
		return nil, err
	}
	if err := write("dim_locations.csv", locationHeader, records(d.Locations, Location.record)); err != nil {
		return nil, err
	}
	if err := write("dim_connectors.csv", connectorHeader, records(d.Connectors, ConnectorDim.record)); err != nil {
		return nil, err
	}
	if err := write("dim_persons.csv", personHeader, records(d.Persons, Person.record)); err != nil {
		return nil, err
	}
	if err := write("dim_entitlements.csv", entitlementHeader, records(d.Entitlements, Entitlement.record)); err != nil {
		return nil, err
	}
	if err := write("fact_access_events.csv", accessEventHeader, records(d.AccessEvents, AccessEventFact.record)); err != nil {
		return nil, err
	}
	if err := write("fact_connector_health.csv", healthHeader, records(d.ConnectorHealth, HealthFact.record)); err != nil {
		return nil, err
	}
	if err := write("fact_compliance_status.csv", complianceHeader, records(d.ComplianceStatus, ComplianceFact.record)); err != nil {
		return nil, err
	}
	return counts, nil
}

func records[T any](rows []T, record func(T) []string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = record(r)
	}
	return out
}

func writeFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
