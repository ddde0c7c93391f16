package server

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"runtime"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jroosing/dnslens/internal/inspect"
	"github.com/jroosing/dnslens/internal/pool"
)

// lenBufPool reduces allocations for the 2-byte TCP length prefix.
var lenBufPool = pool.New(func() *[]byte {
	buf := make([]byte, 2)
	return &buf
})

const (
	// maxTCPMessageSize accepts anything the 16-bit length prefix can
	// describe. Messages above the inspection limit still get read in
	// full so the inspector can record them as oversize.
	maxTCPMessageSize        = 65535
	tcpReadTimeout           = 10 * time.Second
	tcpConnectionIdleTimeout = 30 * time.Second
	maxTCPConnectionsPerSrc  = 10
	maxMessagesPerConnection = 100
)

// TCPServer observes DNS messages arriving over TCP. Each message is
// prefixed with a 2-byte big-endian length (RFC 1035 section 4.2.2) and
// connections may pipeline multiple messages.
//
// One listener per CPU shares the port via SO_REUSEPORT; every accepted
// connection gets a goroutine that reads messages, hands them to the
// inspector, and writes back whatever reply it produced. TCP carries no
// token bucket of its own: the per-source connection cap plus the
// per-connection message cap bound how much inspection work one client
// can cause. All goroutines exit when the context is cancelled.
type TCPServer struct {
	Logger    *slog.Logger       // Optional logger
	Inspector *inspect.Inspector // Message processor

	listeners []net.Listener

	wg sync.WaitGroup // Tracks accept loops and connection handlers

	mu          sync.Mutex
	connsPerSrc map[netip.Addr]int // Open connections per source address
}

// Run starts one SO_REUSEPORT listener per CPU core on addr and blocks
// until ctx is cancelled, then stops gracefully.
func (s *TCPServer) Run(ctx context.Context, addr string) error {
	socketCount := runtime.NumCPU()
	s.listeners = make([]net.Listener, 0, socketCount)

	s.mu.Lock()
	if s.connsPerSrc == nil {
		s.connsPerSrc = map[netip.Addr]int{}
	}
	s.mu.Unlock()

	for range socketCount {
		ln, err := listenTCPReusePort(ctx, addr)
		if err != nil {
			for _, l := range s.listeners {
				_ = l.Close()
			}
			return err
		}
		s.listeners = append(s.listeners, ln)

		listener := ln
		s.wg.Go(func() {
			s.acceptLoop(ctx, listener)
		})
	}

	<-ctx.Done()
	return s.Stop(5 * time.Second)
}

// acceptLoop accepts connections on one listener until the listener is
// closed or the context is cancelled. Sources over their connection cap
// are turned away before a handler goroutine is spent on them.
func (s *TCPServer) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			return
		}

		src := srcAddr(c.RemoteAddr())
		if !s.acquireSrc(src) {
			if s.Logger != nil {
				s.Logger.WarnContext(ctx, "tcp connection limit exceeded", "src", src.String())
			}
			_ = c.Close()
			continue
		}

		conn := c
		s.wg.Go(func() {
			s.handleConnection(ctx, conn, src)
		})
	}
}

// handleConnection reads framed messages off one connection and feeds them
// to the inspector, writing back any reply. It returns when the client
// goes quiet past the idle timeout, the message cap is reached, an I/O
// error occurs, or the context is cancelled.
func (s *TCPServer) handleConnection(ctx context.Context, conn net.Conn, src netip.Addr) {
	defer s.releaseSrc(src)
	defer conn.Close()

	// The inspector wants the source as a string; render it once per
	// connection rather than once per message.
	client := src.String()

	_ = conn.SetDeadline(time.Now().Add(tcpConnectionIdleTimeout))

	for range maxMessagesPerConnection {
		if ctx.Err() != nil {
			return
		}

		msg, ok := s.readMessage(conn)
		if !ok {
			return
		}
		if len(msg) == 0 {
			continue
		}

		// Activity resets the idle clock.
		_ = conn.SetDeadline(time.Now().Add(tcpConnectionIdleTimeout))

		if s.Inspector == nil {
			return
		}

		out := s.Inspector.Inspect(ctx, "tcp", client, msg)
		if len(out.Reply) == 0 {
			continue
		}

		if !s.writeMessage(conn, out.Reply) {
			return
		}
	}
}

// readMessage reads one length-prefixed message. A zero length yields
// (nil, true) so the caller skips it; errors and oversized prefixes yield
// ok=false to drop the connection.
func (s *TCPServer) readMessage(conn net.Conn) ([]byte, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(tcpReadTimeout))
	lenBufPtr := lenBufPool.Get()
	lenBuf := *lenBufPtr
	_, err := io.ReadFull(conn, lenBuf)
	if err != nil {
		lenBufPool.Put(lenBufPtr)
		return nil, false
	}
	msgLen := int(binary.BigEndian.Uint16(lenBuf))
	lenBufPool.Put(lenBufPtr)

	if msgLen == 0 {
		return nil, true
	}
	if msgLen > maxTCPMessageSize {
		return nil, false
	}

	_ = conn.SetReadDeadline(time.Now().Add(tcpReadTimeout))
	msg := make([]byte, msgLen)
	if _, err := io.ReadFull(conn, msg); err != nil {
		return nil, false
	}
	return msg, true
}

// writeMessage writes one length-prefixed reply using a vectored write so
// the prefix and body go out without a combined allocation.
func (s *TCPServer) writeMessage(conn net.Conn, reply []byte) bool {
	replyLen := len(reply)
	if replyLen > maxTCPMessageSize {
		return false
	}

	_ = conn.SetWriteDeadline(time.Now().Add(tcpReadTimeout))

	lenBufPtr := lenBufPool.Get()
	lenBuf := *lenBufPtr
	binary.BigEndian.PutUint16(lenBuf, uint16(replyLen))

	bufs := net.Buffers{lenBuf, reply}
	_, err := bufs.WriteTo(conn)

	lenBufPool.Put(lenBufPtr)
	return err == nil
}

// Stop closes the listeners and waits up to timeout for open connections
// to finish.
func (s *TCPServer) Stop(timeout time.Duration) error {
	for _, ln := range s.listeners {
		_ = ln.Close()
	}

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
		return errors.New("tcp server: timeout waiting for connections")
	}
}

// listenTCPReusePort creates a TCP listener with SO_REUSEPORT set, letting
// several listeners bind the same address while the kernel spreads
// incoming connections across them.
func listenTCPReusePort(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
		},
	}
	return lc.Listen(ctx, "tcp", addr)
}

// srcAddr extracts the source address of a connection, unmapped so 4-in-6
// sources share accounting with their plain IPv4 form. Addresses that
// cannot be parsed come back as the zero Addr, which still works as a map
// key: all such connections share one cap bucket.
func srcAddr(addr net.Addr) netip.Addr {
	tcp, ok := addr.(*net.TCPAddr)
	if ok && tcp != nil {
		return tcp.AddrPort().Addr().Unmap()
	}
	if addr == nil {
		return netip.Addr{}
	}
	if ap, err := netip.ParseAddrPort(addr.String()); err == nil {
		return ap.Addr().Unmap()
	}
	return netip.Addr{}
}

// acquireSrc counts one more connection for src, refusing past the cap.
func (s *TCPServer) acquireSrc(src netip.Addr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.connsPerSrc[src]
	if cur >= maxTCPConnectionsPerSrc {
		return false
	}
	s.connsPerSrc[src] = cur + 1
	return true
}

// releaseSrc undoes acquireSrc, dropping the entry at zero.
func (s *TCPServer) releaseSrc(src netip.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.connsPerSrc[src]
	if cur <= 1 {
		delete(s.connsPerSrc, src)
		return
	}
	s.connsPerSrc[src] = cur - 1
}
