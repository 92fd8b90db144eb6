package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shtops",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shtops",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	collectorRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shtops",
			Subsystem: "collector",
			Name:      "runs_total",
			Help:      "Collector runs by system.",
		},
		[]string{"system", "success"},
	)
	collectorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shtops",
			Subsystem: "collector",
			Name:      "run_duration_seconds",
			Help:      "Collector run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"system"},
	)
	managerCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shtops",
			Subsystem: "manager",
			Name:      "commands_total",
			Help:      "Asterisk manager CLI commands issued.",
		},
		[]string{"command", "success"},
	)
	managerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shtops",
			Subsystem: "manager",
			Name:      "command_duration_seconds",
			Help:      "Asterisk manager command round trip in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			collectorRuns, collectorDuration,
			managerCommands, managerDuration,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordCollectorRun(system string, success bool, duration time.Duration) {
	RegisterMetrics()
	collectorRuns.WithLabelValues(system, strconv.FormatBool(success)).Inc()
	collectorDuration.WithLabelValues(system).Observe(duration.Seconds())
}

// RecordManagerCommand tracks one CLI command issued over the manager
// connection. The command label is the CLI text, which is low cardinality
// here since the client only runs a fixed set of show commands.
func RecordManagerCommand(command string, success bool, duration time.Duration) {
	RegisterMetrics()
	managerCommands.WithLabelValues(command, strconv.FormatBool(success)).Inc()
	managerDuration.WithLabelValues(command).Observe(duration.Seconds())
}
