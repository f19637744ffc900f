package core

import (
	"context"
	"strconv"
	"testing"
	"time"

	"roomchat/proto"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(NewRegistry(50), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

// mustEvent reads events until one of the wanted kind arrives.
func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed while waiting for kind %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
		}
	}
}

// mustMessage reads events until a topic message on the given topic arrives.
func mustMessage(t *testing.T, ch <-chan *Event, topic proto.Topic) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed while waiting for %s", topic)
			}
			if ev.Kind == EventTopicMessage && ev.Topic == topic {
				return ev
			}
		case <-deadline:
			t.Fatalf("no message on %s", topic)
		}
	}
}

// waitOccupancy drains occupancy events for the room until the count
// converges to want.
func waitOccupancy(t *testing.T, ch <-chan *Event, room string, want int) {
	t.Helper()

	topic := proto.OccupancyTopic(room)
	deadline := time.After(2 * time.Second)
	last := -1
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed at occupancy %d, want %d", last, want)
			}
			if ev.Kind != EventTopicMessage || ev.Topic != topic {
				continue
			}
			n, err := strconv.Atoi(ev.Body)
			if err != nil {
				t.Fatalf("non-numeric occupancy body %q", ev.Body)
			}
			last = n
			if n == want {
				return
			}
		case <-deadline:
			t.Fatalf("occupancy stuck at %d, want %d", last, want)
		}
	}
}

func subscribe(s *Session, topic proto.Topic) {
	s.Commands <- &Command{Kind: CommandSubscribe, Topic: topic}
}

func publishEnvelope(t *testing.T, s *Session, room string, env proto.Envelope) {
	t.Helper()

	body, err := proto.EncodeEnvelope(env)
	if err != nil {
		t.Fatalf("encode envelope: %v", err)
	}
	s.Commands <- &Command{Kind: CommandPublish, Topic: proto.BroadcastTopic(room), Body: string(body)}
}
