package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// ImportJob is the push gateway job name for import-users runs.
const ImportJob = "labctl_import"

// ImportTotals are the outcome counts of one import-users run.
type ImportTotals struct {
	Added    int
	Changed  int
	Warnings int
	Errors   int
	DryRun   bool
}

// PushImport replaces the import job's metric group on the push gateway at
// url with t. The CLI exits right after an import, so the gateway is the
// only place these numbers survive. An empty url does nothing.
func PushImport(ctx context.Context, url string, t ImportTotals) error {
	if url == "" {
		return nil
	}

	entries := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "labctl",
			Subsystem: "import",
			Name:      "last_run_entries",
			Help:      "Entries handled by the last import-users run, by outcome.",
		},
		[]string{"kind"},
	)
	entries.WithLabelValues("added").Set(float64(t.Added))
	entries.WithLabelValues("changed").Set(float64(t.Changed))
	entries.WithLabelValues("warning").Set(float64(t.Warnings))
	entries.WithLabelValues("error").Set(float64(t.Errors))

	completed := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "labctl",
		Subsystem: "import",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last import-users run finished.",
	})
	completed.SetToCurrentTime()

	dryRun := "false"
	if t.DryRun {
		dryRun = "true"
	}
	err := push.New(url, ImportJob).
		Grouping("dry_run", dryRun).
		Collector(entries).
		Collector(completed).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push import metrics to %s: %w", url, err)
	}
	return nil
}
