package inspect

import (
	"sync/atomic"

	"github.com/jroosing/dnslens/internal/helpers"
)

// transportCounters is one transport's cumulative counter set.
type transportCounters struct {
	headers   atomic.Uint64
	queries   atomic.Uint64
	responses atomic.Uint64
	malformed atomic.Uint64
	responded atomic.Uint64
	matched   atomic.Uint64
}

// Stats collects inspection statistics.
// All methods are safe for concurrent use.
type Stats struct {
	udp transportCounters
	tcp transportCounters

	latencyTotalNs atomic.Uint64
}

// NewStats creates a new statistics collector.
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) forTransport(transport string) *transportCounters {
	if transport == "tcp" {
		return &s.tcp
	}
	return &s.udp
}

// RecordHeader records one successfully decoded header for the given
// transport (udp or tcp).
func (s *Stats) RecordHeader(transport string, isQuery bool) {
	c := s.forTransport(transport)
	c.headers.Add(1)
	if isQuery {
		c.queries.Add(1)
	} else {
		c.responses.Add(1)
	}
}

// RecordMalformed records one message that failed to decode.
func (s *Stats) RecordMalformed(transport string) {
	s.forTransport(transport).malformed.Add(1)
}

// RecordResponded records one error reply sent back to a client.
func (s *Stats) RecordResponded(transport string) {
	s.forTransport(transport).responded.Add(1)
}

// RecordMatch records a correlated query/response pair and its latency
// in nanoseconds.
func (s *Stats) RecordMatch(transport string, latencyNs int64) {
	s.forTransport(transport).matched.Add(1)
	s.latencyTotalNs.Add(uint64(helpers.ClampLatencyNs(latencyNs)))
}

// TransportSnapshot is a point-in-time view of one transport's counters.
type TransportSnapshot struct {
	Headers   uint64 `json:"headers"`
	Queries   uint64 `json:"queries"`
	Responses uint64 `json:"responses"`
	Malformed uint64 `json:"malformed"`
	Responded uint64 `json:"responded"`
	Matched   uint64 `json:"matched"`
}

func (c *transportCounters) snapshot() TransportSnapshot {
	return TransportSnapshot{
		Headers:   c.headers.Load(),
		Queries:   c.queries.Load(),
		Responses: c.responses.Load(),
		Malformed: c.malformed.Load(),
		Responded: c.responded.Load(),
		Matched:   c.matched.Load(),
	}
}

// Snapshot is a point-in-time view of inspection statistics.
type Snapshot struct {
	UDP TransportSnapshot `json:"udp"`
	TCP TransportSnapshot `json:"tcp"`

	HeadersTotal      uint64  `json:"headers_total"`
	MalformedTotal    uint64  `json:"malformed_total"`
	MatchedTotal      uint64  `json:"matched_total"`
	AvgMatchLatencyMs float64 `json:"avg_match_latency_ms"`
}

// Snapshot returns the current statistics.
func (s *Stats) Snapshot() Snapshot {
	udp := s.udp.snapshot()
	tcp := s.tcp.snapshot()

	matched := udp.Matched + tcp.Matched
	avgLatencyMs := 0.0
	if matched > 0 {
		avgLatencyMs = float64(s.latencyTotalNs.Load()) / float64(matched) / 1e6
	}

	return Snapshot{
		UDP:               udp,
		TCP:               tcp,
		HeadersTotal:      udp.Headers + tcp.Headers,
		MalformedTotal:    udp.Malformed + tcp.Malformed,
		MatchedTotal:      matched,
		AvgMatchLatencyMs: avgLatencyMs,
	}
}
