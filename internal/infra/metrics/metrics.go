// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_updates_total",
			Help: "Webhook updates by outcome (ok/decode_error/duplicate/rate_limited/dedup_error/error).",
		},
		[]string{"outcome"},
	)

	updateLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_update_latency_ms",
			Help:    "End-to-end update handling latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"outcome"},
	)

	registrationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_transitions_total",
			Help: "Registration state transitions per step and outcome.",
		},
		[]string{"step", "outcome"},
	)

	airtableRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airtable_requests_total",
			Help: "Airtable API calls per operation and HTTP status.",
		},
		[]string{"op", "status"},
	)

	repliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replies_total",
			Help: "Outbound acknowledgment replies by success.",
		},
		[]string{"success"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			updatesTotal, updateLatencyMs,
			registrationTotal, airtableRequests, repliesTotal,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Webhook helpers --------

func IncUpdate(outcome string) {
	updatesTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveUpdateLatency(outcome string, ms float64) {
	updateLatencyMs.WithLabelValues(norm(outcome)).Observe(ms)
}

// -------- Registration helpers --------

func IncRegistration(step, outcome string) {
	registrationTotal.WithLabelValues(norm(step), norm(outcome)).Inc()
}

// -------- Airtable helpers --------

func IncAirtableRequest(op string, status int) {
	airtableRequests.WithLabelValues(norm(op), strconv.Itoa(status)).Inc()
}

// -------- Reply helpers --------

func IncReply(success bool) {
	repliesTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}
