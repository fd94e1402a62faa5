package realtime

import "sync"

// client is one connected websocket session.
// send is never closed; done signals the pumps to stop, and close is idempotent.
type client struct {
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newClient(sendQueueSize int) *client {
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	return &client{
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
