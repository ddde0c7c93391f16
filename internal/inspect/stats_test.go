package inspect

import (
	"testing"
	"time"
)

func TestStatsSnapshot(t *testing.T) {
	s := NewStats()

	s.RecordHeader("udp", true)
	s.RecordHeader("udp", true)
	s.RecordHeader("udp", false)
	s.RecordHeader("tcp", false)
	s.RecordMalformed("udp")
	s.RecordResponded("udp")
	s.RecordMatch("udp", (10 * time.Millisecond).Nanoseconds())

	snap := s.Snapshot()
	if snap.UDP.Headers != 3 || snap.UDP.Queries != 2 || snap.UDP.Responses != 1 {
		t.Errorf("unexpected udp counters: %+v", snap.UDP)
	}
	if snap.TCP.Headers != 1 || snap.TCP.Responses != 1 {
		t.Errorf("unexpected tcp counters: %+v", snap.TCP)
	}
	if snap.HeadersTotal != 4 {
		t.Errorf("expected 4 headers total, got %d", snap.HeadersTotal)
	}
	if snap.MalformedTotal != 1 {
		t.Errorf("expected 1 malformed total, got %d", snap.MalformedTotal)
	}
	if snap.MatchedTotal != 1 {
		t.Errorf("expected 1 matched total, got %d", snap.MatchedTotal)
	}
	if snap.AvgMatchLatencyMs != 10 {
		t.Errorf("expected 10ms average latency, got %f", snap.AvgMatchLatencyMs)
	}
}

func TestStatsUnknownTransportCountsAsUDP(t *testing.T) {
	s := NewStats()
	s.RecordHeader("", true)
	if got := s.Snapshot().UDP.Headers; got != 1 {
		t.Errorf("expected fallback to udp counters, got %d", got)
	}
}

func TestStatsZeroLatencyIgnored(t *testing.T) {
	s := NewStats()
	s.RecordMatch("udp", 0)
	snap := s.Snapshot()
	if snap.MatchedTotal != 1 {
		t.Errorf("expected match counted, got %d", snap.MatchedTotal)
	}
	if snap.AvgMatchLatencyMs != 0 {
		t.Errorf("expected zero average latency, got %f", snap.AvgMatchLatencyMs)
	}
}
