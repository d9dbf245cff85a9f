// Package verify checks the demo pipeline end to end: broker and MySQL
// reachability, the Debezium connector state, and whether fact rows are
// still arriving in the analytical store.
package verify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/twmb/franz-go/pkg/kadm"

	"github.com/slysik/piam-dashboard/internal/model"
	"github.com/slysik/piam-dashboard/internal/warehouse"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultWindow is the trailing window used for data-flow checks.
const DefaultWindow = 10 * time.Minute

// Overall pipeline status.
const (
	StatusHealthy  = "healthy"  // data flowing end to end
	StatusStarting = "starting" // services up, no data yet
	StatusDegraded = "degraded" // a service is down
)

// Check is one verification result.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Report aggregates all checks plus the derived overall status.
type Report struct {
	Checks []Check
	Events warehouse.Freshness
	Health warehouse.Freshness
	Status string
}

// ExitCode maps the overall status to a process exit code: only degraded is
// a failure, a starting pipeline just needs time.
func (r *Report) ExitCode() int {
	if r.Status == StatusDegraded {
		return 1
	}
	return 0
}

// BrokerLister is the slice of the Kafka admin API the verifier uses.
// Satisfied by *kadm.Client.
type BrokerLister interface {
	ListBrokers(ctx context.Context) (kadm.BrokerDetails, error)
}

// FreshnessQuerier reports recent row counts per fact table. Satisfied by
// *warehouse.Client.
type FreshnessQuerier interface {
	TableFreshness(ctx context.Context, table, timeColumn string, window time.Duration) (warehouse.Freshness, error)
}

// Pinger is the operational-store liveness check. Satisfied by
// *opstore.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Verifier runs the pipeline checks. Nil dependencies are reported as
// failed checks, so callers can pass what they managed to connect to.
type Verifier struct {
	MySQL     Pinger
	Kafka     BrokerLister
	Warehouse FreshnessQuerier

	// ConnectURL is the Kafka Connect REST base URL. Empty skips the
	// Debezium check (direct mode has no connector).
	ConnectURL    string
	ConnectorName string
	HTTPClient    *http.Client

	Window time.Duration
}

// Run executes every check and derives the overall status.
func (v *Verifier) Run(ctx context.Context) Report {
	window := v.Window
	if window <= 0 {
		window = DefaultWindow
	}

	var report Report

	mysqlOK := v.checkMySQL(ctx, &report)
	kafkaOK := v.checkKafka(ctx, &report)
	debeziumOK := v.checkDebezium(ctx, &report)

	eventsFlowing := v.checkFreshness(ctx, &report, "access events",
		model.TableAccessEvents, "event_time", window, &report.Events)
	healthFlowing := v.checkFreshness(ctx, &report, "health checks",
		model.TableConnectorHealth, "check_time", window, &report.Health)

	switch {
	case eventsFlowing && healthFlowing && debeziumOK && mysqlOK:
		report.Status = StatusHealthy
	case mysqlOK && kafkaOK:
		report.Status = StatusStarting
	default:
		report.Status = StatusDegraded
	}
	return report
}

func (v *Verifier) checkMySQL(ctx context.Context, report *Report) bool {
	if v.MySQL == nil {
		report.Checks = append(report.Checks, Check{Name: "mysql", Detail: "not connected"})
		return false
	}
	if err := v.MySQL.Ping(ctx); err != nil {
		report.Checks = append(report.Checks, Check{Name: "mysql", Detail: err.Error()})
		return false
	}
	report.Checks = append(report.Checks, Check{Name: "mysql", OK: true, Detail: "ok"})
	return true
}

func (v *Verifier) checkKafka(ctx context.Context, report *Report) bool {
	if v.Kafka == nil {
		report.Checks = append(report.Checks, Check{Name: "kafka", Detail: "not connected"})
		return false
	}
	brokers, err := v.Kafka.ListBrokers(ctx)
	if err != nil {
		report.Checks = append(report.Checks, Check{Name: "kafka", Detail: err.Error()})
		return false
	}
	if len(brokers) == 0 {
		report.Checks = append(report.Checks, Check{Name: "kafka", Detail: "no brokers"})
		return false
	}
	report.Checks = append(report.Checks, Check{
		Name: "kafka", OK: true, Detail: fmt.Sprintf("%d broker(s)", len(brokers)),
	})
	return true
}

// connectorStatus is the Kafka Connect REST status payload, reduced to the
// connector state.
type connectorStatus struct {
	Connector struct {
		State string `json:"state"`
	} `json:"connector"`
}

func (v *Verifier) checkDebezium(ctx context.Context, report *Report) bool {
	if v.ConnectURL == "" {
		report.Checks = append(report.Checks, Check{Name: "debezium", OK: true, Detail: "skipped"})
		return true
	}

	client := v.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	url := fmt.Sprintf("%s/connectors/%s/status", v.ConnectURL, v.ConnectorName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		report.Checks = append(report.Checks, Check{Name: "debezium", Detail: err.Error()})
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		report.Checks = append(report.Checks, Check{Name: "debezium", Detail: "connector not reachable"})
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		report.Checks = append(report.Checks, Check{
			Name: "debezium", Detail: fmt.Sprintf("status endpoint returned %d", resp.StatusCode),
		})
		return false
	}

	var status connectorStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		report.Checks = append(report.Checks, Check{Name: "debezium", Detail: "invalid response"})
		return false
	}
	ok := status.Connector.State == "RUNNING"
	report.Checks = append(report.Checks, Check{Name: "debezium", OK: ok, Detail: status.Connector.State})
	return ok
}

func (v *Verifier) checkFreshness(ctx context.Context, report *Report, name, table, timeColumn string, window time.Duration, out *warehouse.Freshness) bool {
	if v.Warehouse == nil {
		report.Checks = append(report.Checks, Check{Name: name, Detail: "not connected"})
		return false
	}
	f, err := v.Warehouse.TableFreshness(ctx, table, timeColumn, window)
	if err != nil {
		report.Checks = append(report.Checks, Check{Name: name, Detail: err.Error()})
		return false
	}
	*out = f
	flowing := f.Count > 0
	detail := fmt.Sprintf("%d row(s) in last %s", f.Count, window)
	if flowing {
		detail += ", latest " + f.Latest.Format(time.DateTime)
	}
	report.Checks = append(report.Checks, Check{Name: name, OK: flowing, Detail: detail})
	return flowing
}
