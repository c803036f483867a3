package router

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"tradewatch/internal/channel"
)

type fakeConn struct {
	id   string
	open bool

	mu   sync.Mutex
	sent [][]byte
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, open: true}
}

func (c *fakeConn) ID() string   { return c.id }
func (c *fakeConn) IsOpen() bool { return c.open }

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeConn) replies(t *testing.T) []Reply {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Reply, 0, len(c.sent))
	for _, data := range c.sent {
		var reply Reply
		if err := json.Unmarshal(data, &reply); err != nil {
			t.Fatalf("unmarshal reply %q: %v", data, err)
		}
		out = append(out, reply)
	}
	return out
}

func (c *fakeConn) lastReply(t *testing.T) Reply {
	t.Helper()
	replies := c.replies(t)
	if len(replies) == 0 {
		t.Fatal("no reply sent")
	}
	return replies[len(replies)-1]
}

func newTestRouter() *Router {
	return NewRouter(channel.NewRegistry(nil), nil)
}

func TestSubscribeAck(t *testing.T) {
	r := newTestRouter()
	conn := newFakeConn("c1")

	r.Handle(conn, []byte(`{"type":"subscribe","channel":"tickers"}`))

	replies := conn.replies(t)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	want := Reply{Type: TypeSubscribed, Channel: "tickers"}
	if replies[0] != want {
		t.Errorf("reply = %+v, want %+v", replies[0], want)
	}
}

func TestSubscribeDuplicateError(t *testing.T) {
	r := newTestRouter()
	conn := newFakeConn("c1")

	r.Handle(conn, []byte(`{"type":"subscribe","channel":"tickers"}`))
	r.Handle(conn, []byte(`{"type":"subscribe","channel":"tickers"}`))

	reply := conn.lastReply(t)
	if reply.Type != TypeError {
		t.Fatalf("reply type = %q, want %q", reply.Type, TypeError)
	}
	if !strings.Contains(reply.Message, "Already subscribed") {
		t.Errorf("error message = %q, want substring %q", reply.Message, "Already subscribed")
	}
}

func TestSubscribeInvalidChannelError(t *testing.T) {
	r := newTestRouter()
	conn := newFakeConn("c1")

	for _, ch := range []string{"unknown", "ticker:btcusdt", ""} {
		r.Handle(conn, []byte(`{"type":"subscribe","channel":"`+ch+`"}`))
		reply := conn.lastReply(t)
		if reply.Type != TypeError {
			t.Fatalf("channel %q: reply type = %q, want %q", ch, reply.Type, TypeError)
		}
		if !strings.Contains(reply.Message, "Invalid channel") {
			t.Errorf("channel %q: error message = %q, want substring %q",
				ch, reply.Message, "Invalid channel")
		}
	}
}

func TestSubscribeTickerChannel(t *testing.T) {
	registry := channel.NewRegistry(nil)
	r := NewRouter(registry, nil)
	conn := newFakeConn("c1")

	r.Handle(conn, []byte(`{"type":"subscribe","channel":"ticker:BTCUSDT"}`))

	reply := conn.lastReply(t)
	if reply.Type != TypeSubscribed || reply.Channel != "ticker:BTCUSDT" {
		t.Errorf("reply = %+v, want subscribed ticker:BTCUSDT", reply)
	}
	if got := registry.GetStats().TickerSymbols["BTCUSDT"]; got != 1 {
		t.Errorf("TickerSymbols[BTCUSDT] = %d, want 1", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	r := newTestRouter()
	conn := newFakeConn("c1")

	r.Handle(conn, []byte(`{"type":"unsubscribe","channel":"signals"}`))
	reply := conn.lastReply(t)
	if reply.Type != TypeError || !strings.Contains(reply.Message, "Not subscribed") {
		t.Errorf("reply = %+v, want error containing %q", reply, "Not subscribed")
	}

	r.Handle(conn, []byte(`{"type":"subscribe","channel":"signals"}`))
	r.Handle(conn, []byte(`{"type":"unsubscribe","channel":"signals"}`))

	reply = conn.lastReply(t)
	want := Reply{Type: TypeUnsubscribed, Channel: "signals"}
	if reply != want {
		t.Errorf("reply = %+v, want %+v", reply, want)
	}
}

func TestPing(t *testing.T) {
	r := newTestRouter()
	conn := newFakeConn("c1")

	before := time.Now().UnixMilli()
	r.Handle(conn, []byte(`{"type":"ping"}`))
	after := time.Now().UnixMilli()

	reply := conn.lastReply(t)
	if reply.Type != TypePong {
		t.Fatalf("reply type = %q, want %q", reply.Type, TypePong)
	}
	if reply.Timestamp < before || reply.Timestamp > after {
		t.Errorf("pong timestamp = %d, want within [%d, %d]", reply.Timestamp, before, after)
	}
}

func TestUnknownTypeError(t *testing.T) {
	r := newTestRouter()
	conn := newFakeConn("c1")

	r.Handle(conn, []byte(`{"type":"orderbook"}`))

	reply := conn.lastReply(t)
	if reply.Type != TypeError || !strings.Contains(reply.Message, "Unknown message type") {
		t.Errorf("reply = %+v, want error containing %q", reply, "Unknown message type")
	}
}

func TestMalformedInputDroppedSilently(t *testing.T) {
	r := newTestRouter()
	conn := newFakeConn("c1")

	inputs := [][]byte{
		[]byte(`not json at all`),
		[]byte(`"a bare string"`),
		[]byte(`[1,2,3]`),
		[]byte(`42`),
		[]byte(`{"channel":"tickers"}`), // no type field
		[]byte(`{}`),
		[]byte(``),
	}
	for _, input := range inputs {
		r.Handle(conn, input)
	}

	if got := len(conn.replies(t)); got != 0 {
		t.Errorf("got %d replies to malformed input, want 0", got)
	}

	stats := r.Stats()
	if stats.MessagesDropped != int64(len(inputs)) {
		t.Errorf("MessagesDropped = %d, want %d", stats.MessagesDropped, len(inputs))
	}
}

func TestReplyGoesOnlyToOriginatingConnection(t *testing.T) {
	registry := channel.NewRegistry(nil)
	r := NewRouter(registry, nil)

	sender := newFakeConn("c1")
	bystander := newFakeConn("c2")
	registry.Subscribe(bystander, "tickers")

	r.Handle(sender, []byte(`{"type":"subscribe","channel":"tickers"}`))

	if got := len(sender.replies(t)); got != 1 {
		t.Errorf("sender got %d replies, want 1", got)
	}
	if got := len(bystander.replies(t)); got != 0 {
		t.Errorf("bystander got %d frames, want 0", got)
	}
}

func TestStatsCounters(t *testing.T) {
	r := newTestRouter()
	conn := newFakeConn("c1")

	r.Handle(conn, []byte(`{"type":"subscribe","channel":"tickers"}`)) // reply
	r.Handle(conn, []byte(`{"type":"subscribe","channel":"bogus"}`))   // rejected
	r.Handle(conn, []byte(`garbage`))                                  // dropped

	stats := r.Stats()
	if stats.MessagesReceived != 3 {
		t.Errorf("MessagesReceived = %d, want 3", stats.MessagesReceived)
	}
	if stats.MessagesDropped != 1 {
		t.Errorf("MessagesDropped = %d, want 1", stats.MessagesDropped)
	}
	if stats.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", stats.Rejected)
	}
	if stats.Replies != 2 {
		t.Errorf("Replies = %d, want 2", stats.Replies)
	}
}
