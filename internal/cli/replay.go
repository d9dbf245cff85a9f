package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/slysik/piam-dashboard/internal/config"
	"github.com/slysik/piam-dashboard/internal/observability"
	"github.com/slysik/piam-dashboard/internal/replay"
	"github.com/slysik/piam-dashboard/internal/warehouse"
)

// RunReplay injects anomaly scenarios into the analytical store.
func RunReplay(args []string) error {
	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
		fmt.Println(`Usage: piam-replay [options]

Injects anomaly scenarios into the analytical store for testing
dashboards and alerting.

Options:
  --scenario <name>        all, deny-spike, suspicious, or degradation
                           (default: all)
  --deny-count <n>         Deny events for the spike scenario (default: 20)
  --suspicious-count <n>   Suspicious events (default: 5)
  --host <host>            ClickHouse host (overrides environment)
  --port <n>               ClickHouse native port (overrides environment)
  --seed <n>               Random seed for reproducibility

Examples:
  piam-replay --scenario all
  piam-replay --scenario deny-spike --deny-count 30
  piam-replay --host localhost --port 9000 --seed 42`)
		return nil
	}

	scenario := "all"
	denyCount := replay.DefaultDenyCount
	suspiciousCount := replay.DefaultSuspiciousCount
	host := ""
	port := 0
	var seed int64

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--scenario":
			if i+1 >= len(args) {
				return fmt.Errorf("--scenario requires a value")
			}
			scenario = args[i+1]
			i++
		case "--deny-count":
			if i+1 >= len(args) {
				return fmt.Errorf("--deny-count requires a value")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid --deny-count value: %s", args[i+1])
			}
			denyCount = n
			i++
		case "--suspicious-count":
			if i+1 >= len(args) {
				return fmt.Errorf("--suspicious-count requires a value")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid --suspicious-count value: %s", args[i+1])
			}
			suspiciousCount = n
			i++
		case "--host":
			if i+1 >= len(args) {
				return fmt.Errorf("--host requires a value")
			}
			host = args[i+1]
			i++
		case "--port":
			if i+1 >= len(args) {
				return fmt.Errorf("--port requires a value")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid --port value: %s", args[i+1])
			}
			port = n
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
		default:
			return fmt.Errorf("unknown flag: %s (use --help for usage)", args[i])
		}
	}

	switch scenario {
	case "all", "deny-spike", "suspicious", "degradation":
	default:
		return fmt.Errorf("unknown scenario %q (all, deny-spike, suspicious, degradation)", scenario)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if host != "" {
		cfg.ClickHouse.Host = host
	}
	if port != 0 {
		cfg.ClickHouse.Port = port
	}

	logger := observability.NewLogger("piam-replay", observability.ParseLogLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Connecting to ClickHouse at %s...\n", cfg.ClickHouse.Addr())
	store, err := warehouse.Open(ctx, cfg.ClickHouse)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	runner := replay.NewRunner(store, seed, logger)

	var total int
	switch scenario {
	case "deny-spike":
		total, err = runner.DenySpike(ctx, denyCount)
	case "suspicious":
		total, err = runner.SuspiciousCluster(ctx, suspiciousCount)
	case "degradation":
		total, err = runner.Degradation(ctx)
	default:
		total, err = runner.All(ctx, denyCount, suspiciousCount)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nTotal records injected: %d\n", total)
	return nil
}
