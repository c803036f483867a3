package server

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newDetachedClient(buffer int) *Client {
	// No underlying connection: Send/IsOpen only touch the buffer and
	// state flag, which is what these tests exercise.
	return &Client{
		id:           uuid.NewString(),
		logger:       slog.Default(),
		writeTimeout: time.Second,
		pingInterval: time.Second,
		send:         make(chan []byte, buffer),
		done:         make(chan struct{}),
		open:         true,
	}
}

func TestClientSendNeverBlocks(t *testing.T) {
	c := newDetachedClient(2)

	// Fill the buffer, then keep sending: the extra frames are dropped,
	// not blocked on.
	for i := 0; i < 5; i++ {
		done := make(chan error, 1)
		go func() { done <- c.Send([]byte("frame")) }()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Send returned error on open client: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Send blocked with full buffer")
		}
	}

	if got := len(c.send); got != 2 {
		t.Errorf("buffered frames = %d, want 2", got)
	}
}

func TestClientSendAfterClose(t *testing.T) {
	c := newDetachedClient(2)

	c.mu.Lock()
	c.open = false
	c.mu.Unlock()

	if err := c.Send([]byte("frame")); err != ErrClientClosed {
		t.Errorf("Send after close = %v, want ErrClientClosed", err)
	}
	if c.IsOpen() {
		t.Error("IsOpen = true after close")
	}
}

func TestClientIDsAreUnique(t *testing.T) {
	a, b := newDetachedClient(1), newDetachedClient(1)
	if a.ID() == b.ID() {
		t.Errorf("two clients share id %q", a.ID())
	}
	if _, err := uuid.Parse(a.ID()); err != nil {
		t.Errorf("client id %q is not a uuid: %v", a.ID(), err)
	}
}
