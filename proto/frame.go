package proto

// Frame types exchanged over the websocket. Inbound frames flow client to
// broker, outbound frames broker to client.
const (
	InboundTypeSubscribe   = "subscribe"
	InboundTypeUnsubscribe = "unsubscribe"
	InboundTypePublish     = "publish"

	OutboundTypeMessage = "message"
	OutboundTypeError   = "error"
)

// Inbound is a client request: subscribe to, unsubscribe from, or publish a
// body to a topic.
type Inbound struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Body  string `json:"body,omitempty"`
}

// Outbound is a broker notification: a body delivered on a topic, or a
// protocol error.
type Outbound struct {
	Type  string      `json:"type"`
	Topic string      `json:"topic,omitempty"`
	Body  string      `json:"body,omitempty"`
	Error *FrameError `json:"error,omitempty"`
}

// FrameError describes a protocol-level error response.
type FrameError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
