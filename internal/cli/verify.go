package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/slysik/piam-dashboard/internal/config"
	"github.com/slysik/piam-dashboard/internal/kafka"
	"github.com/slysik/piam-dashboard/internal/observability"
	"github.com/slysik/piam-dashboard/internal/opstore"
	"github.com/slysik/piam-dashboard/internal/verify"
	"github.com/slysik/piam-dashboard/internal/warehouse"
)

// RunVerify checks the pipeline end to end and returns the process exit
// code: 0 when healthy or still starting, 1 when degraded.
func RunVerify(args []string) (int, error) {
	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
		fmt.Println(`Usage: piam-verify

Checks pipeline health: MySQL, Kafka, the Debezium connector, and
whether fact rows arrived in the analytical store during the last
VERIFY_WINDOW_SECONDS (default 600).

Configuration comes from the environment; see .env.example.

Exit codes:
  0  healthy, or services up and waiting for data
  1  degraded`)
		return 0, nil
	}
	if len(args) > 0 {
		return 1, fmt.Errorf("unknown flag: %s (use --help for usage)", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return 1, err
	}
	logger := observability.NewLogger("piam-verify", observability.ParseLogLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	v := &verify.Verifier{
		ConnectURL:    cfg.ConnectURL,
		ConnectorName: cfg.ConnectorName,
		Window:        cfg.VerifyWindow,
	}

	// Connect to what we can; the verifier reports the rest as failed.
	if mysqlStore, err := opstore.Open(cfg.MySQL); err != nil {
		logger.Warn("mysql unreachable", "error", err)
	} else {
		defer func() {
			_ = mysqlStore.Close()
		}()
		v.MySQL = mysqlStore
	}

	if adm, closeKafka, err := openAdmin(cfg.Kafka); err != nil {
		logger.Warn("kafka unreachable", "error", err)
	} else {
		defer closeKafka()
		v.Kafka = adm
	}

	if store, err := warehouse.Open(ctx, cfg.ClickHouse); err != nil {
		logger.Warn("clickhouse unreachable", "error", err)
	} else {
		defer func() {
			_ = store.Close()
		}()
		v.Warehouse = store
	}

	report := v.Run(ctx)
	printReport(report, cfg.VerifyWindow)
	logger.Info("verification complete", "status", report.Status)
	return report.ExitCode(), nil
}

func openAdmin(cfg config.Kafka) (*kadm.Client, func(), error) {
	opts, err := kafka.ClientOptions(cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, nil, err
	}
	return kadm.NewClient(client), client.Close, nil
}

func printReport(report verify.Report, window time.Duration) {
	fmt.Println("==================================================")
	fmt.Println("CDC Pipeline Verification")
	fmt.Printf("Time: %s\n", time.Now().Format(time.DateTime))
	fmt.Println("==================================================")

	fmt.Println("\n[Checks]")
	for _, check := range report.Checks {
		mark := "FAIL"
		if check.OK {
			mark = "OK"
		}
		fmt.Printf("  %-15s %-4s %s\n", check.Name, mark, check.Detail)
	}

	fmt.Printf("\n[Data Flow - Last %s]\n", window)
	fmt.Printf("  Access Events: %d (latest: %s)\n", report.Events.Count, formatLatest(report.Events.Latest))
	fmt.Printf("  Health Checks: %d (latest: %s)\n", report.Health.Count, formatLatest(report.Health.Latest))

	fmt.Println("\n[Summary]")
	switch report.Status {
	case verify.StatusHealthy:
		fmt.Println("  Status: HEALTHY - Data flowing through CDC pipeline")
	case verify.StatusStarting:
		fmt.Println("  Status: STARTING - Services up, waiting for data flow")
		fmt.Println("  Tip: Wait 30 seconds and run piam-verify again")
	default:
		fmt.Println("  Status: DEGRADED - Check component logs")
	}
}

func formatLatest(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format(time.DateTime)
}
