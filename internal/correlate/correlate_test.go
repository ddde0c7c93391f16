package correlate

import (
	"testing"
	"time"

	"github.com/jroosing/dnslens/internal/dnswire"
)

func query(id uint16) dnswire.Header {
	return dnswire.Header{ID: id, IsQuery: true, Opcode: dnswire.OpcodeQuery}
}

func response(id uint16) dnswire.Header {
	return dnswire.Header{ID: id, IsQuery: false, Opcode: dnswire.OpcodeQuery}
}

func TestNewDefaults(t *testing.T) {
	tr := New(0, 0)
	if tr.ttl != 5*time.Second {
		t.Errorf("expected default ttl 5s, got %v", tr.ttl)
	}
	if tr.maxEntries != 1 {
		t.Errorf("expected maxEntries 1 (minimum), got %d", tr.maxEntries)
	}
}

func TestMatchQueryResponse(t *testing.T) {
	tr := New(5*time.Second, 100)
	base := time.Now()

	if lat, ok := tr.Observe("192.0.2.1", query(0x1234), base); ok || lat != 0 {
		t.Errorf("query must not match, got latency %v matched %v", lat, ok)
	}

	lat, ok := tr.Observe("192.0.2.1", response(0x1234), base.Add(30*time.Millisecond))
	if !ok {
		t.Fatal("expected response to match its query")
	}
	if lat != 30*time.Millisecond {
		t.Errorf("expected latency 30ms, got %v", lat)
	}

	stats := tr.Stats()
	if stats.Matched != 1 {
		t.Errorf("expected 1 matched, got %d", stats.Matched)
	}
	if stats.Outstanding != 0 {
		t.Errorf("expected 0 outstanding after match, got %d", stats.Outstanding)
	}
}

func TestMatchIsScopedToClient(t *testing.T) {
	tr := New(5*time.Second, 100)
	base := time.Now()

	tr.Observe("192.0.2.1", query(0x1234), base)

	// Same ID from another client must not match.
	if _, ok := tr.Observe("192.0.2.99", response(0x1234), base.Add(time.Millisecond)); ok {
		t.Error("response from a different client must not match")
	}

	if _, ok := tr.Observe("192.0.2.1", response(0x1234), base.Add(2*time.Millisecond)); !ok {
		t.Error("response from the original client should match")
	}

	stats := tr.Stats()
	if stats.Orphaned != 1 {
		t.Errorf("expected 1 orphaned, got %d", stats.Orphaned)
	}
}

func TestResponseConsumesQuery(t *testing.T) {
	tr := New(5*time.Second, 100)
	base := time.Now()

	tr.Observe("192.0.2.1", query(7), base)
	if _, ok := tr.Observe("192.0.2.1", response(7), base.Add(time.Millisecond)); !ok {
		t.Fatal("first response should match")
	}

	// A duplicate response finds nothing.
	if _, ok := tr.Observe("192.0.2.1", response(7), base.Add(2*time.Millisecond)); ok {
		t.Error("duplicate response must not match again")
	}
}

func TestExpiredQueryDoesNotMatch(t *testing.T) {
	tr := New(100*time.Millisecond, 100)
	base := time.Now()

	tr.Observe("192.0.2.1", query(1), base)

	if _, ok := tr.Observe("192.0.2.1", response(1), base.Add(200*time.Millisecond)); ok {
		t.Error("response after TTL must not match")
	}

	stats := tr.Stats()
	if stats.Expired == 0 {
		t.Error("expected expired counter to advance")
	}
	if stats.Orphaned != 1 {
		t.Errorf("expected late response counted as orphaned, got %d", stats.Orphaned)
	}
}

func TestRetransmissionRestartsClock(t *testing.T) {
	tr := New(100*time.Millisecond, 100)
	base := time.Now()

	tr.Observe("192.0.2.1", query(1), base)
	// Retransmitted 80ms later, inside the original TTL.
	tr.Observe("192.0.2.1", query(1), base.Add(80*time.Millisecond))

	// 150ms after the first send but only 70ms after the retry.
	lat, ok := tr.Observe("192.0.2.1", response(1), base.Add(150*time.Millisecond))
	if !ok {
		t.Fatal("expected match against the retransmitted query")
	}
	if lat != 70*time.Millisecond {
		t.Errorf("latency should be measured from the retry, got %v", lat)
	}

	if outstanding := tr.Stats().Outstanding; outstanding != 0 {
		t.Errorf("retransmission must not duplicate the entry, outstanding = %d", outstanding)
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	tr := New(time.Hour, 2)
	base := time.Now()

	tr.Observe("c", query(1), base)
	tr.Observe("c", query(2), base.Add(time.Millisecond))
	tr.Observe("c", query(3), base.Add(2*time.Millisecond))

	stats := tr.Stats()
	if stats.Outstanding != 2 {
		t.Errorf("expected 2 outstanding at capacity, got %d", stats.Outstanding)
	}
	if stats.Evicted != 1 {
		t.Errorf("expected 1 evicted, got %d", stats.Evicted)
	}

	// ID 1 was the oldest and must be gone; 2 and 3 still match.
	if _, ok := tr.Observe("c", response(1), base.Add(3*time.Millisecond)); ok {
		t.Error("evicted query must not match")
	}
	if _, ok := tr.Observe("c", response(2), base.Add(4*time.Millisecond)); !ok {
		t.Error("expected ID 2 to survive eviction")
	}
	if _, ok := tr.Observe("c", response(3), base.Add(5*time.Millisecond)); !ok {
		t.Error("expected ID 3 to survive eviction")
	}
}

func TestExpiredQueriesSweptBeforeRecording(t *testing.T) {
	tr := New(50*time.Millisecond, 100)
	base := time.Now()

	for id := uint16(0); id < 10; id++ {
		tr.Observe("c", query(id), base)
	}
	if outstanding := tr.Stats().Outstanding; outstanding != 10 {
		t.Fatalf("expected 10 outstanding, got %d", outstanding)
	}

	// One new query well past the TTL sweeps all the stale ones out.
	tr.Observe("c", query(100), base.Add(time.Second))

	stats := tr.Stats()
	if stats.Outstanding != 1 {
		t.Errorf("expected 1 outstanding after sweep, got %d", stats.Outstanding)
	}
	if stats.Expired != 10 {
		t.Errorf("expected 10 expired, got %d", stats.Expired)
	}
}
