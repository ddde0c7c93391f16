package server

import (
	"net/netip"
	"testing"
	"time"
)

func TestPrefixOf(t *testing.T) {
	if got := prefixOf(netip.MustParseAddr("203.0.113.9")).String(); got != "203.0.113.0/24" {
		t.Fatalf("got %q", got)
	}
	if got := prefixOf(netip.MustParseAddr("2001:db8::1")).String(); got != "2001:db8::/64" {
		t.Fatalf("got %q", got)
	}
}

func TestBucketTable_TakeSpendsTokens(t *testing.T) {
	b := newBucketTable(1.0, 5, 0, 100)

	for i := range 5 {
		if !b.take("key1") {
			t.Fatalf("take %d should have been granted", i)
		}
	}
	if b.take("key1") {
		t.Fatal("take past the burst should have been denied")
	}
}

func TestBucketTable_KeysIndependent(t *testing.T) {
	b := newBucketTable(1.0, 2, 0, 100)

	b.take("key1")
	b.take("key1")

	if !b.take("key2") {
		t.Fatal("a fresh key should have its own bucket")
	}
}

func TestBucketTable_Replenishes(t *testing.T) {
	b := newBucketTable(1000.0, 1, 0, 100)

	if !b.take("key1") {
		t.Fatal("first take should be granted")
	}
	if b.take("key1") {
		t.Fatal("second take should be denied")
	}

	time.Sleep(5 * time.Millisecond)

	if !b.take("key1") {
		t.Fatal("take after replenishment should be granted")
	}
}

func TestBucketTable_DisabledWithZeroRate(t *testing.T) {
	b := newBucketTable(0, 5, 0, 100)

	for range 20 {
		if !b.take("key1") {
			t.Fatal("a disabled table must grant everything")
		}
	}
}

func TestBucketTable_FullTableDeniesNewKeys(t *testing.T) {
	b := newBucketTable(1.0, 5, time.Hour, 2)

	if !b.take("a") || !b.take("b") {
		t.Fatal("keys within capacity should be granted")
	}
	// Both slots are live and the sweep interval is far off.
	if b.take("c") {
		t.Fatal("a newcomer to a full table should be denied")
	}
	if !b.take("a") {
		t.Fatal("existing keys keep working when the table is full")
	}
}

func TestBucketTable_ConcurrentTakes(t *testing.T) {
	b := newBucketTable(1000, 100, 0, 1000)

	done := make(chan bool)
	for i := range 10 {
		go func(id int) {
			key := string(rune('a' + id))
			for range 50 {
				b.take(key)
			}
			done <- true
		}(i)
	}

	for range 10 {
		<-done
	}
}
