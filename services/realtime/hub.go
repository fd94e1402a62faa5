package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

const (
	defaultSendQueueSize = 64
	defaultWriteTimeout  = 5 * time.Second
)

// Envelope is the wire format of a broadcast event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub accepts websocket connections and fans broadcast events out to all of
// them. Delivery is best-effort: a client that cannot keep up is dropped.
type Hub struct {
	logger         core.Logger
	allowedOrigins []string
	writeTimeout   time.Duration
	sendQueueSize  int

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

var _ course.Broadcaster = (*Hub)(nil)
var _ http.Handler = (*Hub)(nil)

func NewHub(logger core.Logger, conf *core.Config) *Hub {
	return &Hub{
		logger:         logger,
		allowedOrigins: conf.Server.AllowedOrigins,
		writeTimeout:   defaultWriteTimeout,
		sendQueueSize:  defaultSendQueueSize,
		clients:        make(map[*client]struct{}),
	}
}

// Broadcast queues an event for all connected clients; it never blocks.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("marshalling broadcast event", errors.Wrap(err, event))
		return
	}

	var dropped []*client
	h.mu.RLock()
	for cl := range h.clients {
		select {
		case cl.send <- payload:
		default:
			// slow client; drop it rather than stall the broadcast
			dropped = append(dropped, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range dropped {
		h.unregister(cl)
	}
}

// ServeHTTP upgrades the request and pumps broadcast events to the peer until
// it goes away. Incoming frames are read and discarded: the channel is one-way.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		h.logger.Warn("accepting websocket", err)
		return
	}

	cl := newClient(h.sendQueueSize)
	if !h.register(cl) {
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer h.unregister(cl)

	ctx := r.Context()
	go h.writePump(ctx, conn, cl)

	// a dropped client (slow consumer, hub shutdown) must also lose its
	// connection; the peer would otherwise hang on a socket that receives nothing
	go func() {
		<-cl.done
		_ = conn.Close(websocket.StatusPolicyViolation, "dropped")
	}()

	// read loop; returns when the peer closes or the request context ends
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, conn *websocket.Conn, cl *client) {
	for {
		select {
		case payload := <-cl.send:
			wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				cl.close()
				return
			}
		case <-cl.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) register(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = struct{}{}
	return true
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, cl)
	cl.close()
}

// Close drops all clients and rejects new ones; idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		cl.close()
		delete(h.clients, cl)
	}
}
