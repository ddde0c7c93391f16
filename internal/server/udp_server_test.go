package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/dnslens/internal/inspect"
)

func TestUDPServer_RunOnConn(t *testing.T) {
	// Create a UDP connection for testing
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err, "ResolveUDPAddr failed")

	conn, err := net.ListenUDP("udp", addr)
	require.NoError(t, err, "ListenUDP failed")
	defer conn.Close()

	s := &UDPServer{
		Inspector:      inspect.New(inspect.Config{}),
		MaxConcurrency: 2, // Small for testing
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Run in goroutine
	done := make(chan error, 1)
	go func() {
		done <- s.RunOnConn(ctx, conn)
	}()

	// Wait for context to expire
	<-ctx.Done()

	select {
	case err := <-done:
		assert.NoError(t, err, "RunOnConn returned error")
	case <-time.After(time.Second):
		t.Error("timeout waiting for RunOnConn to finish")
	}
}

func TestUDPServer_Stop_NoConnections(t *testing.T) {
	s := &UDPServer{}

	// Should not panic or hang with no connections
	err := s.Stop(100 * time.Millisecond)
	assert.NoError(t, err, "Stop with no connections should not error")
}

func TestUDPServer_Stop_ZeroTimeout(t *testing.T) {
	s := &UDPServer{}

	// Should wait indefinitely with 0 timeout
	err := s.Stop(0)
	assert.NoError(t, err, "Stop with zero timeout should not error")
}

func TestUDPServer_DefaultMaxConcurrency(t *testing.T) {
	s := &UDPServer{}

	// MaxConcurrency defaults to 1 slot when unset
	assert.Equal(t, 0, s.MaxConcurrency, "initial MaxConcurrency should be 0 (unset)")

	addr, _ := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	conn, _ := net.ListenUDP("udp", addr)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.RunOnConn(ctx, conn)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, cap(s.sem), "semaphore should default to 1 slot")
}

func TestUDPServer_HandlePacket_NilInspector(t *testing.T) {
	s := &UDPServer{}
	s.sem = make(chan struct{}, 1)
	s.sem <- struct{}{}
	s.wg.Add(1)

	addr, _ := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	conn, _ := net.ListenUDP("udp", addr)
	defer conn.Close()

	peer := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}

	// Should not panic with nil inspector
	s.handlePacket(context.Background(), conn, []byte{0x00, 0x01}, peer)
}

func TestUDPServer_RateLimitedDrop(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err, "ListenUDP failed")
	addr := conn.LocalAddr().(*net.UDPAddr)

	insp := inspect.New(inspect.Config{Respond: true})

	// Global burst of 1 with negligible refill: first message passes,
	// everything after is dropped before inspection.
	limiter := NewRateLimiter(RateLimitSettings{
		GlobalQPS:   0.001,
		GlobalBurst: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &UDPServer{Inspector: insp, Limiter: limiter, MaxConcurrency: 4}
	errCh := make(chan error, 1)
	go func() { errCh <- s.RunOnConn(ctx, conn) }()
	defer func() {
		cancel()
		_ = s.Stop(2 * time.Second)
		<-errCh
	}()

	client, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: addr.IP, Port: addr.Port})
	require.NoError(t, err, "dial udp failed")
	defer client.Close()

	query := testQueryBytes(t, 0x0101)

	// First message passes the limiter and gets a reply
	_ = client.SetDeadline(time.Now().Add(2 * time.Second))
	_, err = client.Write(query)
	require.NoError(t, err, "write failed")

	buf := make([]byte, 512)
	_, err = client.Read(buf)
	require.NoError(t, err, "expected a reply for the first message")

	// Second message is dropped by the limiter, no reply
	_, err = client.Write(query)
	require.NoError(t, err, "write failed")

	_ = client.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, err = client.Read(buf)
	var ne net.Error
	require.ErrorAs(t, err, &ne, "expected a timeout, got %v", err)
	assert.True(t, ne.Timeout(), "expected read timeout for rate limited message")

	assert.Equal(t, uint64(1), insp.Stats().HeadersTotal, "limited message should not reach the inspector")
}
