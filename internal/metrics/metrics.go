// Package metrics exposes Prometheus metrics for header inspection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jroosing/dnslens/internal/dnswire"
)

// Metrics tracks dnslens Prometheus metrics. All metrics use the dnslens_
// prefix. Methods are safe on a nil receiver, which acts as a no-op
// collector.
type Metrics struct {
	// HeadersTotal counts observed messages by transport and outcome
	// (decoded or malformed).
	HeadersTotal *prometheus.CounterVec

	// AnomaliesTotal counts anomalies by kind.
	AnomaliesTotal *prometheus.CounterVec

	// OpcodesTotal counts decoded headers by opcode mnemonic.
	OpcodesTotal *prometheus.CounterVec

	// RCodesTotal counts decoded responses by response code mnemonic.
	RCodesTotal *prometheus.CounterVec

	// RepliesTotal counts error replies sent back, by response code.
	RepliesTotal *prometheus.CounterVec

	// MatchesTotal counts responses correlated to an outstanding query.
	MatchesTotal prometheus.Counter

	// MatchLatency tracks query-to-response latency distribution.
	MatchLatency prometheus.Histogram

	// OutstandingQueries tracks the correlator table size.
	OutstandingQueries prometheus.Gauge

	// RateLimitedTotal counts packets dropped by the rate limiter.
	RateLimitedTotal prometheus.Counter
}

// NewMetrics creates and registers all collectors. Panics if registration
// fails, which only happens on duplicate registration during startup.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HeadersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnslens_headers_total",
				Help: "Observed DNS messages by transport and outcome",
			},
			[]string{"transport", "outcome"}, // outcome: "decoded", "malformed"
		),
		AnomaliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnslens_anomalies_total",
				Help: "Header anomalies by kind",
			},
			[]string{"kind"},
		),
		OpcodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnslens_opcodes_total",
				Help: "Decoded headers by opcode",
			},
			[]string{"opcode"},
		),
		RCodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnslens_rcodes_total",
				Help: "Decoded responses by response code",
			},
			[]string{"rcode"},
		),
		RepliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnslens_replies_total",
				Help: "Error replies sent by response code",
			},
			[]string{"rcode"},
		),
		MatchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dnslens_matches_total",
				Help: "Responses correlated to an outstanding query",
			},
		),
		MatchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dnslens_match_latency_seconds",
				Help:    "Query-to-response latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		OutstandingQueries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dnslens_outstanding_queries",
				Help: "Queries currently waiting for a response",
			},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dnslens_rate_limited_total",
				Help: "Packets dropped by the rate limiter",
			},
		),
	}

	reg.MustRegister(
		m.HeadersTotal,
		m.AnomaliesTotal,
		m.OpcodesTotal,
		m.RCodesTotal,
		m.RepliesTotal,
		m.MatchesTotal,
		m.MatchLatency,
		m.OutstandingQueries,
		m.RateLimitedTotal,
	)

	return m
}

// RecordDecoded records one successfully decoded header. Response codes
// are only counted for responses since the RCODE of a query carries no
// information.
func (m *Metrics) RecordDecoded(transport string, h dnswire.Header) {
	if m == nil {
		return
	}
	m.HeadersTotal.WithLabelValues(transport, "decoded").Inc()
	m.OpcodesTotal.WithLabelValues(h.Opcode.String()).Inc()
	if !h.IsQuery {
		m.RCodesTotal.WithLabelValues(h.ResponseCode.String()).Inc()
	}
}

// RecordMalformed records one message that failed to decode.
func (m *Metrics) RecordMalformed(transport, kind string) {
	if m == nil {
		return
	}
	m.HeadersTotal.WithLabelValues(transport, "malformed").Inc()
	m.AnomaliesTotal.WithLabelValues(kind).Inc()
}

// RecordReply records one error reply sent back to a client.
func (m *Metrics) RecordReply(rcode dnswire.RCode) {
	if m == nil {
		return
	}
	m.RepliesTotal.WithLabelValues(rcode.String()).Inc()
}

// RecordMatch records one correlated query/response pair.
func (m *Metrics) RecordMatch(latencySeconds float64) {
	if m == nil {
		return
	}
	m.MatchesTotal.Inc()
	m.MatchLatency.Observe(latencySeconds)
}

// SetOutstanding updates the correlator table size gauge.
func (m *Metrics) SetOutstanding(n int) {
	if m == nil {
		return
	}
	m.OutstandingQueries.Set(float64(n))
}

// RecordRateLimited records one packet dropped by the rate limiter.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}
