package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"strconv"
	"time"
)

const namespace = "codemailer"

var (
	// sendsTotal counts per-recipient outcomes.
	// Labels:
	// - outcome: "sent", "skipped" or "failed"
	sendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "sends_total",
			Help:      "Number of recipients processed by outcome",
		},
		[]string{"outcome"},
	)

	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "send_duration_seconds",
			Help:      "Duration of a single transport send",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "runs_total",
			Help:      "Number of dispatch runs by terminal status",
		},
		[]string{"status"},
	)

	runsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "runs_in_flight",
			Help:      "Number of dispatch runs currently sending",
		},
	)

	attachmentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "attachment_failures_total",
			Help:      "Number of attachments that could not be resolved",
		},
	)

	finalizeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "finalize_failures_total",
			Help:      "Number of runs whose ledger bookkeeping could not be written",
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func IncSend(outcome string) {
	sendsTotal.WithLabelValues(outcome).Inc()
}

func ObserveSend(provider string, d time.Duration) {
	sendDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func RunStarted() {
	runsInFlight.Inc()
}

func RunDone(status string) {
	runsInFlight.Dec()
	runsTotal.WithLabelValues(status).Inc()
}

func IncAttachmentFailure() {
	attachmentFailures.Inc()
}

func IncFinalizeFailure() {
	finalizeFailures.Inc()
}

func ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
