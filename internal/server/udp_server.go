// Package server implements the UDP and TCP listeners that feed observed
// DNS traffic into the inspector.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jroosing/dnslens/internal/dnswire"
	"github.com/jroosing/dnslens/internal/inspect"
	"github.com/jroosing/dnslens/internal/metrics"
	"github.com/jroosing/dnslens/internal/pool"
)

// bufferPool reduces allocations for incoming UDP packets.
// Each buffer is sized for the maximum message accepted for inspection.
var bufferPool = pool.NewBufferPool(dnswire.MaxMessageSize)

// UDPServer receives DNS messages over UDP and hands them to the
// inspector.
//
// Features:
//   - Buffer pooling to reduce GC pressure under load
//   - Semaphore-based concurrency limiting
//   - Rate limiting per source IP
//   - Graceful shutdown with timeout
type UDPServer struct {
	Logger         *slog.Logger       // Optional logger
	Inspector      *inspect.Inspector // Message processor
	Limiter        *RateLimiter       // Optional per-IP rate limiter
	Metrics        *metrics.Metrics   // Optional metrics collector
	MaxConcurrency int                // Maximum concurrent handlers

	conn *net.UDPConn   // The UDP socket
	wg   sync.WaitGroup // Tracks in-flight handlers
	sem  chan struct{}  // Concurrency semaphore
}

// Run starts the UDP server, listening on the given address.
func (s *UDPServer) Run(ctx context.Context, addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	return s.RunOnConn(ctx, conn)
}

// RunOnConn runs the server on an existing UDP connection.
// This is useful for testing and when the caller manages the socket.
//
// Message processing flow:
//  1. Read packet from socket (with 1s timeout for shutdown checks)
//  2. Apply rate limiting (drop if exceeded)
//  3. Acquire semaphore slot (drop if at max concurrency)
//  4. Inspect in a goroutine
//  5. Write the error reply back when the inspector produced one
func (s *UDPServer) RunOnConn(ctx context.Context, conn *net.UDPConn) error {
	s.conn = conn
	defer conn.Close()

	maxConc := s.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 1
	}
	s.sem = make(chan struct{}, maxConc)

	for {
		if ctx.Err() != nil {
			break
		}

		packet, remote, ok := s.receivePacket(ctx, conn)
		if !ok {
			continue
		}

		// Apply rate limiting
		if s.Limiter != nil && !s.Limiter.Allow(remote.AddrPort().Addr()) {
			s.Metrics.RecordRateLimited()
			continue
		}

		// Try to acquire semaphore (non-blocking)
		if !s.tryAcquireSemaphore() {
			continue // at max concurrency, drop packet
		}

		s.wg.Add(1)
		go s.handlePacket(ctx, conn, packet, remote)
	}

	return nil
}

// receivePacket reads a UDP packet using a pooled buffer.
// Returns the packet data and source address, or ok=false if no packet was received.
func (s *UDPServer) receivePacket(ctx context.Context, conn *net.UDPConn) ([]byte, *net.UDPAddr, bool) {
	bufPtr := bufferPool.Get()
	buf := *bufPtr
	defer bufferPool.Put(bufPtr)

	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	n, remote, err := conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil, false // timeout, check context and retry
		}
		if ctx.Err() != nil {
			return nil, nil, false // server shutting down
		}
		return nil, nil, false
	}
	if remote == nil {
		return nil, nil, false
	}

	// Copy data out of pooled buffer
	data := make([]byte, n)
	copy(data, buf[:n])
	return data, remote, true
}

// tryAcquireSemaphore attempts to acquire a concurrency slot.
// Returns false if the server is at maximum concurrency.
func (s *UDPServer) tryAcquireSemaphore() bool {
	select {
	case s.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// handlePacket inspects a single message and writes back any reply.
func (s *UDPServer) handlePacket(ctx context.Context, conn *net.UDPConn, payload []byte, peer *net.UDPAddr) {
	defer s.wg.Done()
	defer func() { <-s.sem }()

	if s.Inspector == nil {
		return
	}

	out := s.Inspector.Inspect(ctx, "udp", peer.IP.String(), payload)
	if len(out.Reply) == 0 {
		return
	}
	_, _ = conn.WriteToUDP(out.Reply, peer)
}

// Stop gracefully shuts down the UDP server.
// Waits up to the specified timeout for in-flight handlers to complete.
// Returns an error if the timeout is exceeded.
func (s *UDPServer) Stop(timeout time.Duration) error {
	if s.conn == nil {
		return nil
	}
	_ = s.conn.Close()

	if timeout <= 0 {
		s.wg.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("udp server: timeout waiting for in-flight handlers")
	}
}
