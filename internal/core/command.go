package core

import "roomchat/proto"

// CommandKind describes what the session wants to do.
type CommandKind int

const (
	// CommandSubscribe attaches the session to a topic.
	CommandSubscribe CommandKind = iota
	// CommandUnsubscribe detaches the session from a topic.
	CommandUnsubscribe
	// CommandPublish relays a payload to a topic's subscribers.
	CommandPublish
)

// Command represents an action requested by a connected session. The body is
// opaque to the broker; only clients encode and decode envelopes.
type Command struct {
	Kind  CommandKind
	Topic proto.Topic
	Body  string
}
