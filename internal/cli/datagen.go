// Package cli implements the one-shot tool commands: historical data
// generation, anomaly replay, and pipeline verification.
package cli

import (
	"fmt"
	"strconv"

	"github.com/slysik/piam-dashboard/internal/datagen"
)

// RunDatagen generates historical CSV data from a topology file.
func RunDatagen(args []string) error {
	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
		fmt.Println(`Usage: piam-datagen [options]

Generates synthetic dimension and fact CSV files for bulk loading into
the analytical store.

Options:
  --config <path>   Topology file (default: config.yaml)
  --days <n>        Days of historical data (overrides config)
  --seed <n>        Random seed for reproducibility (overrides config)
  --output <dir>    Output directory (overrides config)

Examples:
  piam-datagen --config config.yaml
  piam-datagen --days 7 --seed 42 --output /tmp/piam-data`)
		return nil
	}

	configPath := "config.yaml"
	days := 0
	var seed int64
	output := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 >= len(args) {
				return fmt.Errorf("--config requires a value")
			}
			configPath = args[i+1]
			i++
		case "--days":
			if i+1 >= len(args) {
				return fmt.Errorf("--days requires a value")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid --days value: %s", args[i+1])
			}
			days = n
			i++
		case "--seed":
			if i+1 >= len(args) {
				return fmt.Errorf("--seed requires a value")
			}
			n, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid --seed value: %s", args[i+1])
			}
			seed = n
			i++
		case "--output":
			if i+1 >= len(args) {
				return fmt.Errorf("--output requires a value")
			}
			output = args[i+1]
			i++
		default:
			return fmt.Errorf("unknown flag: %s (use --help for usage)", args[i])
		}
	}

	fmt.Printf("Loading topology from %s...\n", configPath)
	topo, err := datagen.LoadTopology(configPath)
	if err != nil {
		return err
	}
	if days == 0 {
		days = topo.General.HistoryDays
	}
	if output == "" {
		output = topo.General.OutputDir
	}

	fmt.Printf("Generating %d days of data for %d tenant(s)\n", days, len(topo.Tenants))

	gen := datagen.NewGenerator(topo, seed)
	dataset := gen.Generate(days)

	counts, err := dataset.WriteCSV(output)
	if err != nil {
		return err
	}

	fmt.Println("\nFiles written:")
	for _, name := range []string{
		"dim_tenants.csv", "dim_sites.csv", "dim_locations.csv", "dim_connectors.csv",
		"dim_persons.csv", "dim_entitlements.csv",
		"fact_access_events.csv", "fact_connector_health.csv", "fact_compliance_status.csv",
	} {
		fmt.Printf("  %-30s %d rows\n", name, counts[name])
	}
	fmt.Printf("\nOutput directory: %s\n", output)
	return nil
}
