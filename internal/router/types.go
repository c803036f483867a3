package router

// ClientMessage is an inbound command from a WebSocket client.
type ClientMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
}

// Reply is the single outbound response to an inbound command.
type Reply struct {
	Type      string `json:"type"`
	Channel   string `json:"channel,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"` // epoch milliseconds (pong only)
	Message   string `json:"message,omitempty"`   // human-readable (error only)
}

// Inbound message types.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"
)

// Outbound message types.
const (
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypePong         = "pong"
	TypeError        = "error"
)

// Stats contains runtime counters for the router.
type Stats struct {
	MessagesReceived int64 `json:"messages_received"`
	MessagesDropped  int64 `json:"messages_dropped"`
	Rejected         int64 `json:"rejected"`
	Replies          int64 `json:"replies"`
}
