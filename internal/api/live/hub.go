// Package live streams inspection events to WebSocket subscribers.
//
// The Hub fans each published event out to every connected client. Slow
// clients are disconnected rather than allowed to stall the feed, and
// events published while the broadcast buffer is full are dropped and
// counted.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jroosing/dnslens/internal/inspect"
)

const (
	// writeWait is the deadline for a single write to a client.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before it is
	// considered dead. Pings go out at pingPeriod, which must be
	// shorter than pongWait.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames. Subscribers only listen;
	// anything beyond a close/pong is noise.
	maxMessageSize = 512

	// sendBufferSize is the per-client outbound queue. A client that
	// falls this far behind is disconnected.
	sendBufferSize = 64

	// broadcastBufferSize absorbs bursts between the listeners and the
	// fan-out loop.
	broadcastBufferSize = 256
)

// The API key middleware gates the /live route; browser origin is not
// checked here.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the set of connected WebSocket clients and fans published
// events out to them. Run must be active before clients connect.
type Hub struct {
	logger *slog.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan inspect.Event
	done       chan struct{}

	clients map[*client]struct{}

	clientCount atomic.Int64
	dropped     atomic.Uint64
}

// New creates a Hub. Call Run to start the fan-out loop.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan inspect.Event, broadcastBufferSize),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Publish queues an event for broadcast. It never blocks; when the
// buffer is full the event is dropped and counted.
func (h *Hub) Publish(ev inspect.Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because the broadcast
// buffer was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// Run fans events out to clients until ctx is cancelled. On exit every
// client is disconnected and further registrations are refused.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for cl := range h.clients {
			close(cl.send)
			delete(h.clients, cl)
		}
		h.clientCount.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case cl := <-h.register:
			h.clients[cl] = struct{}{}
			h.clientCount.Store(int64(len(h.clients)))
		case cl := <-h.unregister:
			if _, ok := h.clients[cl]; ok {
				delete(h.clients, cl)
				close(cl.send)
				h.clientCount.Store(int64(len(h.clients)))
			}
		case ev := <-h.broadcast:
			if len(h.clients) == 0 {
				continue
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("Failed to encode live event", "error", err)
				continue
			}
			for cl := range h.clients {
				select {
				case cl.send <- payload:
				default:
					// The client is not keeping up. Cut it loose
					// instead of stalling everyone else.
					delete(h.clients, cl)
					close(cl.send)
					h.clientCount.Store(int64(len(h.clients)))
				}
			}
		}
	}
}

// ServeWS upgrades the request to a WebSocket and subscribes it to the
// event feed. Intended to be mounted as a gin route handler.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err, "client_ip", c.ClientIP())
		return
	}

	cl := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- cl:
	case <-h.done:
		conn.Close()
		return
	}

	h.logger.Debug("Live feed subscriber connected", "client_ip", c.ClientIP())

	go cl.writePump()
	go cl.readPump()
}

// readPump drains inbound frames so pongs and close messages are
// processed, and unregisters the client when the connection dies.
func (cl *client) readPump() {
	defer func() {
		select {
		case cl.hub.unregister <- cl:
		case <-cl.hub.done:
		}
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pushes queued events to the client and keeps the connection
// alive with periodic pings. A closed send channel means the hub has
// let this client go.
func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
