package proto

import (
	"fmt"
	"strings"
)

// TopicKind selects one of the two streams a room exposes.
type TopicKind string

const (
	// KindBroadcast is the room's message stream (chat and presence envelopes).
	KindBroadcast TopicKind = "messages"
	// KindOccupancy is the room's live subscriber count stream. Bodies on
	// this topic are the count as decimal text.
	KindOccupancy TopicKind = "occupancy"
)

// DefaultRoom is used when a client connects without naming a room.
const DefaultRoom = "public"

// Topic addresses one stream of one room.
type Topic struct {
	Room string
	Kind TopicKind
}

// BroadcastTopic returns the message topic for a room.
func BroadcastTopic(room string) Topic {
	return Topic{Room: room, Kind: KindBroadcast}
}

// OccupancyTopic returns the occupancy topic for a room.
func OccupancyTopic(room string) Topic {
	return Topic{Room: room, Kind: KindOccupancy}
}

// String renders the topic in its wire form, "/topic/<room>/<kind>".
func (t Topic) String() string {
	return "/topic/" + t.Room + "/" + string(t.Kind)
}

// ParseTopic parses the wire form produced by String. The room id may not
// be empty or contain '/'.
func ParseTopic(s string) (Topic, error) {
	rest, ok := strings.CutPrefix(s, "/topic/")
	if !ok {
		return Topic{}, fmt.Errorf("parse topic %q: missing /topic/ prefix", s)
	}
	room, kind, ok := strings.Cut(rest, "/")
	if !ok || room == "" {
		return Topic{}, fmt.Errorf("parse topic %q: want /topic/<room>/<kind>", s)
	}
	switch TopicKind(kind) {
	case KindBroadcast, KindOccupancy:
		return Topic{Room: room, Kind: TopicKind(kind)}, nil
	default:
		return Topic{}, fmt.Errorf("parse topic %q: unknown kind %q", s, kind)
	}
}
