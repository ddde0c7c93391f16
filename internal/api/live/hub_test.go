package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jroosing/dnslens/internal/inspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// startHub runs a hub with a /live route on an httptest server and
// returns the hub plus the ws:// URL to dial.
func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	router := gin.New()
	router.GET("/live", hub.ServeWS)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub, url := startHub(t)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "dial failed")
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond, "subscriber never registered")

	sent := inspect.Event{
		Time:      time.Now().UTC(),
		Transport: "udp",
		Client:    "192.0.2.7",
		Outcome:   "decoded",
		Header:    &inspect.HeaderView{ID: 0xBEEF, IsQuery: true, Opcode: "QUERY", QuestionCount: 1},
	}
	hub.Publish(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, payload, err := conn.ReadMessage()
	require.NoError(t, err, "read failed")
	assert.Equal(t, websocket.TextMessage, msgType)

	var got inspect.Event
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "udp", got.Transport)
	assert.Equal(t, "192.0.2.7", got.Client)
	assert.Equal(t, "decoded", got.Outcome)
	require.NotNil(t, got.Header)
	assert.Equal(t, uint16(0xBEEF), got.Header.ID)
	assert.Equal(t, "QUERY", got.Header.Opcode)
}

func TestHub_EventReachesAllSubscribers(t *testing.T) {
	hub, url := startHub(t)

	conns := make([]*websocket.Conn, 0, 3)
	for range 3 {
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err, "dial failed")
		if resp != nil {
			resp.Body.Close()
		}
		defer conn.Close()
		conns = append(conns, conn)
	}

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 3
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(inspect.Event{Transport: "tcp", Client: "198.51.100.4", Outcome: "truncated_header"})

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err, "subscriber %d read failed", i)

		var got inspect.Event
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, "truncated_header", got.Outcome, "subscriber %d", i)
	}
}

func TestHub_DisconnectedClientRemoved(t *testing.T) {
	hub, url := startHub(t)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "dial failed")
	if resp != nil {
		resp.Body.Close()
	}

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "closed client never unregistered")
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	// Without the fan-out loop running, the broadcast buffer fills and
	// further events are dropped rather than stalling the publisher.
	hub := New(nil)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for range broadcastBufferSize + 50 {
			hub.Publish(inspect.Event{Transport: "udp", Outcome: "decoded"})
		}
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}

	assert.Equal(t, uint64(50), hub.Dropped())
}

func TestHub_RefusesRegistrationAfterShutdown(t *testing.T) {
	hub := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	cancel()
	<-done

	router := gin.New()
	router.GET("/live", hub.ServeWS)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err == nil {
		// The upgrade itself may succeed; the hub closes the socket
		// immediately instead of registering it.
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, readErr := conn.ReadMessage()
		assert.Error(t, readErr, "connection should be closed by the hub")
		conn.Close()
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_ServeWSRejectsPlainGET(t *testing.T) {
	// Upgrade fails before any hub interaction, so no fan-out loop is
	// needed.
	hub := New(nil)

	router := gin.New()
	router.GET("/live", hub.ServeWS)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
