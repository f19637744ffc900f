package core

import "roomchat/proto"

// EventKind is a notification the broker emits to sessions.
type EventKind int

const (
	// EventTopicMessage delivers a payload published on a subscribed topic.
	// On occupancy topics the body is the current count as decimal text.
	EventTopicMessage EventKind = iota
	// EventError reports a protocol error to the offending session only.
	EventError
)

// Event is sent to sessions to describe what happened in a room.
type Event struct {
	Kind  EventKind
	Topic proto.Topic
	Body  string
	Error *BrokerError
}
