// Package correlate matches DNS queries to their responses.
//
// Headers carry no payload context here, so the only usable join key is the
// transaction ID scoped to the client address. Outstanding queries are
// tracked with a TTL and evicted least-recently-used when the table fills;
// a response that finds its query yields the round-trip latency.
package correlate

import (
	"container/list"
	"sync"
	"time"

	"github.com/jroosing/dnslens/internal/dnswire"
)

// Key identifies an outstanding query.
type Key struct {
	Client string // normalized client address (IP, not IP:port, so retries over new source ports still match)
	ID     uint16 // transaction ID from the header
}

// entry holds an outstanding query with expiration and LRU tracking.
type entry struct {
	sentAt    time.Time
	expiresAt time.Time
	elem      *list.Element // Position in LRU list
}

// Tracker is a thread-safe, TTL-aware table of outstanding queries.
type Tracker struct {
	mu sync.Mutex

	ttl        time.Duration // How long a query waits for its response
	maxEntries int           // Table capacity

	lru  *list.List     // LRU list (front = oldest, back = newest)
	data map[Key]*entry // Key -> entry mapping

	matched  uint64 // Responses that found their query
	expired  uint64 // Queries that aged out unanswered
	orphaned uint64 // Responses with no tracked query
	evicted  uint64 // Queries dropped to respect capacity
}

// New creates a tracker with the given TTL and capacity.
func New(ttl time.Duration, maxEntries int) *Tracker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Tracker{
		ttl:        ttl,
		maxEntries: maxEntries,
		lru:        list.New(),
		data:       map[Key]*entry{},
	}
}

// Observe feeds one decoded header into the tracker. Queries are recorded;
// responses are matched against the outstanding table. For a matched
// response the round-trip latency and true are returned.
func (t *Tracker) Observe(client string, h dnswire.Header, at time.Time) (time.Duration, bool) {
	key := Key{Client: client, ID: h.ID}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.expireFrontLocked(at)

	if h.IsQuery {
		t.recordQueryLocked(key, at)
		return 0, false
	}

	e := t.data[key]
	if e == nil {
		t.orphaned++
		return 0, false
	}
	if !e.expiresAt.After(at) {
		t.removeLocked(key, e)
		t.expired++
		t.orphaned++
		return 0, false
	}

	latency := at.Sub(e.sentAt)
	t.removeLocked(key, e)
	t.matched++
	return latency, true
}

// recordQueryLocked inserts or refreshes an outstanding query.
func (t *Tracker) recordQueryLocked(key Key, at time.Time) {
	expires := at.Add(t.ttl)

	if existing := t.data[key]; existing != nil {
		// Retransmission: restart the clock.
		existing.sentAt = at
		existing.expiresAt = expires
		t.lru.MoveToBack(existing.elem)
		return
	}

	e := &entry{sentAt: at, expiresAt: expires}
	e.elem = t.lru.PushBack(key)
	t.data[key] = e

	for len(t.data) > t.maxEntries {
		front := t.lru.Front()
		if front == nil {
			break
		}
		k := front.Value.(Key)
		t.removeLocked(k, t.data[k])
		t.evicted++
	}
}

// expireFrontLocked drops aged-out queries from the front of the LRU list.
// All entries share one TTL, so the front is always the next to expire.
func (t *Tracker) expireFrontLocked(now time.Time) {
	for {
		front := t.lru.Front()
		if front == nil {
			return
		}
		k := front.Value.(Key)
		e := t.data[k]
		if e == nil {
			t.lru.Remove(front)
			continue
		}
		if e.expiresAt.After(now) {
			return
		}
		t.removeLocked(k, e)
		t.expired++
	}
}

func (t *Tracker) removeLocked(key Key, e *entry) {
	if e == nil {
		return
	}
	t.lru.Remove(e.elem)
	delete(t.data, key)
}

// Snapshot is a point-in-time view of tracker statistics.
type Snapshot struct {
	Outstanding int    `json:"outstanding"`
	Matched     uint64 `json:"matched"`
	Expired     uint64 `json:"expired"`
	Orphaned    uint64 `json:"orphaned"`
	Evicted     uint64 `json:"evicted"`
}

// Stats returns the current statistics.
func (t *Tracker) Stats() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Outstanding: len(t.data),
		Matched:     t.matched,
		Expired:     t.expired,
		Orphaned:    t.orphaned,
		Evicted:     t.evicted,
	}
}
