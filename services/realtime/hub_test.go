package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestHub() *Hub {
	conf := core.NewConfig()
	conf.TestMode = true
	return NewHub(nopLogger{}, conf)
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// waitForClients polls until the hub sees want connected clients.
func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.clientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d client(s); got %d", want, h.clientCount())
}

func Test_Hub_Broadcast(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForClients(t, hub, 1)

	hub.Broadcast("course.created", map[string]string{"id": "c1", "title": "Go 101"})

	_, payload, err := conn.Read(ctx)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	assert.Equal(t, "course.created", env.Event)
	assert.Equal(t, map[string]interface{}{"id": "c1", "title": "Go 101"}, env.Data)
}

func Test_Hub_Broadcast_fanOut(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")
		conns = append(conns, conn)
	}
	waitForClients(t, hub, 3)

	hub.Broadcast("course.created", map[string]string{"id": "c1"})

	for _, conn := range conns {
		_, payload, err := conn.Read(ctx)
		require.NoError(t, err)

		var env Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		assert.Equal(t, "course.created", env.Event)
	}
}

func Test_Hub_Broadcast_dropsSlowClient(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	// a queue of 1 that nobody drains
	cl := newClient(1)
	require.True(t, hub.register(cl))

	hub.Broadcast("first", nil)  // fills the queue
	hub.Broadcast("second", nil) // overflows; client gets dropped

	select {
	case <-cl.done:
	default:
		t.Fatal("slow client was not closed")
	}
	// dropped means gone from the hub, not just stalled
	assert.Equal(t, 0, hub.clientCount())
}

// A dropped client's peer must see the connection severed, not a silent socket.
func Test_Hub_dropSeversConnection(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForClients(t, hub, 1)

	hub.mu.RLock()
	var cl *client
	for c := range hub.clients {
		cl = c
	}
	hub.mu.RUnlock()
	require.NotNil(t, cl)

	cl.close()

	_, _, err = conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))

	waitForClients(t, hub, 0)
}

func Test_Hub_Close(t *testing.T) {
	hub := newTestHub()

	cl := newClient(0)
	require.True(t, hub.register(cl))

	hub.Close()
	hub.Close() // idempotent

	assert.Equal(t, 0, hub.clientCount())
	select {
	case <-cl.done:
	default:
		t.Fatal("client was not closed on hub shutdown")
	}

	// no new clients once closed
	assert.False(t, hub.register(newClient(0)))
}
