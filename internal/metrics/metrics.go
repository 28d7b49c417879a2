// Package metrics holds the Prometheus collectors exported by secfilter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "secfilter"

// Registry is the process-wide collector registry served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// QueueDepth is the number of tasks waiting for admission, per provider queue.
	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Tasks waiting for admission.",
	}, []string{"queue"})

	// QueueWait observes time from submission to start.
	QueueWait = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "wait_seconds",
		Help:      "Time a task spent queued before it started.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"queue"})

	// QueueAdmitted counts started tasks.
	QueueAdmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "admitted_total",
		Help:      "Tasks started by the queue.",
	}, []string{"queue"})

	// SnapshotReads counts snapshot reads by outcome (fresh, refreshed, stale, error).
	SnapshotReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "snapshot",
		Name:      "reads_total",
		Help:      "Snapshot reads by outcome.",
	}, []string{"snapshot", "outcome"})

	// TickerResolutions counts ticker lookups by the step that answered (or "miss").
	TickerResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ticker",
		Name:      "resolutions_total",
		Help:      "Ticker resolutions by resolving step.",
	}, []string{"step"})

	// ProfileLookups counts market-cap lookups by source (fmp, otc, none).
	ProfileLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "profile",
		Name:      "lookups_total",
		Help:      "Profile lookups by answering source.",
	}, []string{"source"})

	// SourceSelections counts which filings feed served a fetch.
	SourceSelections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "source",
		Name:      "selections_total",
		Help:      "Filings feed selections, including fallbacks.",
	}, []string{"source", "reason"})

	// PagesFetched counts upstream feed pages retrieved.
	PagesFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "pages_total",
		Help:      "Feed pages fetched from upstream.",
	}, []string{"feed"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		QueueDepth,
		QueueWait,
		QueueAdmitted,
		SnapshotReads,
		TickerResolutions,
		ProfileLookups,
		SourceSelections,
		PagesFetched,
	)
}

// Handler serves the collectors in Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
