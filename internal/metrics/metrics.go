// Package metrics exposes Prometheus counters for upstream calls, logins and tool invocations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector records PitchMate metrics on a Prometheus registry.
type Collector struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	logins           *prometheus.CounterVec
	toolCalls        *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchmate_upstream_requests_total",
			Help: "Outbound request attempts by upstream service and HTTP status (0 for transport errors).",
		}, []string{"service", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pitchmate_upstream_latency_seconds",
			Help:    "Latency of outbound request attempts.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchmate_logins_total",
			Help: "OAuth callbacks by provider and outcome.",
		}, []string{"provider", "outcome"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchmate_tool_calls_total",
			Help: "MCP tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
	}

	reg.MustRegister(
		c.upstreamRequests,
		c.upstreamLatency,
		c.logins,
		c.toolCalls,
	)

	return c
}

// ObserveUpstream records one outbound attempt.
func (c *Collector) ObserveUpstream(service string, status int, elapsed time.Duration) {
	c.upstreamRequests.WithLabelValues(service, strconv.Itoa(status)).Inc()
	c.upstreamLatency.WithLabelValues(service).Observe(elapsed.Seconds())
}

// RecordLogin records the result of an OAuth callback.
func (c *Collector) RecordLogin(provider string, ok bool) {
	c.logins.WithLabelValues(provider, outcome(ok)).Inc()
}

// RecordToolCall records the result of a tool invocation.
func (c *Collector) RecordToolCall(tool string, ok bool) {
	c.toolCalls.WithLabelValues(tool, outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
