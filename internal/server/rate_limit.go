package server

import (
	"fmt"
	"math"
	"net/netip"
	"sync"
	"time"
)

// Admission control ahead of the decoder. UDP is where floods arrive, so
// the limiter sits on the packet read path; TCP is held back by the per-IP
// connection caps instead.
//
// Three token bucket levels, all of which must grant:
//   - global: one bucket for the whole process
//   - prefix: one bucket per /24 (IPv4) or /64 (IPv6)
//   - ip: one bucket per source address
//
// Token buckets allow short bursts while capping the long-run average rate.

// globalKey is the single key the process-wide bucket table holds.
const globalKey = "*"

// RateLimitSettings carries the limiter knobs from configuration. A level
// with a zero rate or burst is disabled individually.
type RateLimitSettings struct {
	CleanupSeconds   float64
	MaxIPEntries     int
	MaxPrefixEntries int
	GlobalQPS        float64
	GlobalBurst      int
	PrefixQPS        float64
	PrefixBurst      int
	IPQPS            float64
	IPBurst          int
}

// RateLimiter gates messages by source address before any decoding work.
type RateLimiter struct {
	global *bucketTable
	prefix *bucketTable
	ip     *bucketTable
}

// NewRateLimiter builds the three-level limiter from settings.
func NewRateLimiter(s RateLimitSettings) *RateLimiter {
	sweep := time.Duration(math.Max(0, s.CleanupSeconds) * float64(time.Second))
	return &RateLimiter{
		global: newBucketTable(s.GlobalQPS, s.GlobalBurst, sweep, 1),
		prefix: newBucketTable(s.PrefixQPS, s.PrefixBurst, sweep, s.MaxPrefixEntries),
		ip:     newBucketTable(s.IPQPS, s.IPBurst, sweep, s.MaxIPEntries),
	}
}

// Allow reports whether a message from src may proceed. The global level is
// checked first so a flood is rejected with the least work; a nil limiter
// allows everything.
func (r *RateLimiter) Allow(src netip.Addr) bool {
	if r == nil {
		return true
	}
	if !r.global.take(globalKey) {
		return false
	}
	// Dual-stack sockets hand back IPv4 sources as 4-in-6 addresses; unmap
	// so they aggregate under /24 with their plain-IPv4 siblings.
	src = src.Unmap()
	if !r.prefix.take(prefixOf(src).String()) {
		return false
	}
	return r.ip.take(src.String())
}

// prefixOf returns the aggregation prefix for src, /24 for IPv4 and /64
// for IPv6.
func prefixOf(src netip.Addr) netip.Prefix {
	bits := 64
	if src.Is4() {
		bits = 24
	}
	p, err := src.Prefix(bits)
	if err != nil {
		// Invalid address; give it a bucket of its own.
		return netip.PrefixFrom(src, src.BitLen())
	}
	return p
}

// FormatRateLimitsLog returns a one-line summary of the limiter settings
// for the startup log.
func FormatRateLimitsLog(s RateLimitSettings) string {
	fmtLimiter := func(name string, rate float64, burst int) string {
		if rate <= 0.0 || burst <= 0 {
			return name + "=disabled"
		}
		return fmt.Sprintf("%s=%gqps/%d", name, rate, burst)
	}

	return fmt.Sprintf(
		"%s %s %s cleanup_s=%g max_ip=%d max_prefix=%d",
		fmtLimiter("global", s.GlobalQPS, s.GlobalBurst),
		fmtLimiter("prefix", s.PrefixQPS, s.PrefixBurst),
		fmtLimiter("ip", s.IPQPS, s.IPBurst),
		s.CleanupSeconds,
		s.MaxIPEntries,
		s.MaxPrefixEntries,
	)
}

// bucketTable is a keyed token bucket map of bounded size. Each key earns
// rate tokens per second up to burst; a take spends one. Keys idle past the
// sweep interval are dropped, and when the table is full of live keys a
// newcomer is denied rather than growing the map.
type bucketTable struct {
	rate       float64
	burst      float64
	sweepEvery time.Duration
	maxKeys    int

	mu        sync.Mutex // Protects the fields below
	lastSweep time.Time
	seenAt    map[string]time.Time // Last take per key
	tokens    map[string]float64   // Current balance per key
}

func newBucketTable(rate float64, burst int, sweepEvery time.Duration, maxKeys int) *bucketTable {
	if maxKeys <= 0 {
		maxKeys = 1
	}
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	return &bucketTable{
		rate:       rate,
		burst:      float64(burst),
		sweepEvery: sweepEvery,
		maxKeys:    maxKeys,
		lastSweep:  time.Now(),
		seenAt:     map[string]time.Time{},
		tokens:     map[string]float64{},
	}
}

// take spends one token from key's bucket, reporting whether one was
// available. A table with rate or burst <= 0 is disabled and always grants.
func (b *bucketTable) take(key string) bool {
	if b.rate <= 0 || b.burst <= 0 {
		return true
	}

	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) > b.sweepEvery {
		b.sweepLocked(now)
	}

	last, tracked := b.seenAt[key]
	if !tracked {
		if len(b.seenAt) >= b.maxKeys {
			b.sweepLocked(now)
			if len(b.seenAt) >= b.maxKeys {
				return false
			}
		}
		// New keys start with a full bucket and spend their first token.
		b.seenAt[key] = now
		b.tokens[key] = b.burst - 1
		return true
	}

	tokens := b.tokens[key]
	if elapsed := now.Sub(last).Seconds(); elapsed > 0 {
		tokens = math.Min(b.burst, tokens+elapsed*b.rate)
	}
	b.seenAt[key] = now

	if tokens < 1 {
		b.tokens[key] = tokens
		return false
	}
	b.tokens[key] = tokens - 1
	return true
}

// sweepLocked drops keys that have not taken a token within the sweep
// interval. Callers hold b.mu.
func (b *bucketTable) sweepLocked(now time.Time) {
	idleBefore := now.Add(-b.sweepEvery)
	for k, last := range b.seenAt {
		if !last.After(idleBefore) {
			delete(b.seenAt, k)
			delete(b.tokens, k)
		}
	}
	b.lastSweep = now
}
