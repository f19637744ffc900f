package core

import (
	"fmt"
	"sync"
	"testing"

	"roomchat/proto"
)

func TestHubJoinBroadcastAndLeave(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a")
	bob := NewSession("b")
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	for _, s := range []*Session{alice, bob} {
		subscribe(s, proto.OccupancyTopic("general"))
		subscribe(s, proto.BroadcastTopic("general"))
	}

	// Both converge on occupancy 2.
	waitOccupancy(t, alice.Events, "general", 2)
	waitOccupancy(t, bob.Events, "general", 2)

	// Alice's chat reaches bob and, via the same broadcast path, alice
	// herself.
	publishEnvelope(t, alice, "general", proto.NewChat("alice", "hi"))

	broadcast := proto.BroadcastTopic("general")
	for _, s := range []*Session{alice, bob} {
		ev := mustMessage(t, s.Events, broadcast)
		env, err := proto.DecodeEnvelope([]byte(ev.Body))
		if err != nil {
			t.Fatalf("decode broadcast body: %v", err)
		}
		if env.Sender != "alice" || env.Content != "hi" || env.Type != proto.TypeChat {
			t.Fatalf("unexpected envelope: %+v", env)
		}
	}

	// Alice leaves; bob sees occupancy fall to 1.
	alice.Commands <- &Command{Kind: CommandUnsubscribe, Topic: broadcast}
	waitOccupancy(t, bob.Events, "general", 1)
}

func TestHubBroadcastOrdering(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a")
	bob := NewSession("b")
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	broadcast := proto.BroadcastTopic("ordered")
	subscribe(alice, broadcast)
	subscribe(bob, broadcast)
	waitOccupancySilent(t, hub, "ordered", 2)

	for i := 0; i < 10; i++ {
		publishEnvelope(t, alice, "ordered", proto.NewChat("alice", fmt.Sprintf("m%d", i)))
	}

	for _, s := range []*Session{alice, bob} {
		for i := 0; i < 10; i++ {
			ev := mustMessage(t, s.Events, broadcast)
			env, err := proto.DecodeEnvelope([]byte(ev.Body))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if want := fmt.Sprintf("m%d", i); env.Content != want {
				t.Fatalf("session %s got %q at position %d, want %q", s.ID, env.Content, i, want)
			}
		}
	}
}

func TestHubPublishWithoutJoinProducesError(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a")
	hub.RegisterSession(alice)

	publishEnvelope(t, alice, "general", proto.NewChat("alice", "hi"))

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room error, got %+v", ev)
	}
}

func TestHubDoubleSubscribeProducesError(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a")
	hub.RegisterSession(alice)

	subscribe(alice, proto.BroadcastTopic("general"))
	subscribe(alice, proto.BroadcastTopic("general"))

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeAlreadyJoined {
		t.Fatalf("expected already_joined error, got %+v", ev)
	}
}

func TestHubUnsubscribeUnknownRoomError(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a")
	hub.RegisterSession(alice)

	alice.Commands <- &Command{Kind: CommandUnsubscribe, Topic: proto.BroadcastTopic("ghost")}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeRoomNotFound {
		t.Fatalf("expected room_not_found error, got %+v", ev)
	}
}

func TestHubOccupancyTopicIsReadOnly(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a")
	hub.RegisterSession(alice)

	alice.Commands <- &Command{Kind: CommandPublish, Topic: proto.OccupancyTopic("general"), Body: "99"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeBadRequest {
		t.Fatalf("expected bad_request error, got %+v", ev)
	}
}

func TestHubUnregisterUpdatesOccupancy(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a")
	bob := NewSession("b")
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	subscribe(bob, proto.OccupancyTopic("general"))
	subscribe(alice, proto.BroadcastTopic("general"))
	subscribe(bob, proto.BroadcastTopic("general"))
	waitOccupancy(t, bob.Events, "general", 2)

	// Abrupt disconnect: no unsubscribe, just unregister.
	hub.UnregisterSession(alice)
	waitOccupancy(t, bob.Events, "general", 1)

	// A second unregister of the same session is a no-op, and the events
	// channel ends up closed exactly once.
	hub.UnregisterSession(alice)
	for range alice.Events {
	}
}

func TestHubReplaysChatHistoryToLateJoiner(t *testing.T) {
	hub := startHub(t)

	alice := NewSession("a")
	hub.RegisterSession(alice)

	broadcast := proto.BroadcastTopic("general")
	subscribe(alice, broadcast)
	publishEnvelope(t, alice, "general", proto.NewPresence("alice", proto.TypeJoin))
	publishEnvelope(t, alice, "general", proto.NewChat("alice", "first"))
	publishEnvelope(t, alice, "general", proto.NewChat("alice", "second"))
	mustMessage(t, alice.Events, broadcast) // JOIN
	mustMessage(t, alice.Events, broadcast) // first
	mustMessage(t, alice.Events, broadcast) // second

	bob := NewSession("b")
	hub.RegisterSession(bob)
	subscribe(bob, broadcast)

	// Only the chat messages are replayed, in publish order.
	for _, want := range []string{"first", "second"} {
		ev := mustMessage(t, bob.Events, broadcast)
		env, err := proto.DecodeEnvelope([]byte(ev.Body))
		if err != nil {
			t.Fatalf("decode replayed body: %v", err)
		}
		if env.Type != proto.TypeChat || env.Content != want {
			t.Fatalf("unexpected replayed envelope %+v, want content %q", env, want)
		}
	}
}

func TestHubConcurrentJoinLeaveOccupancyInvariant(t *testing.T) {
	hub := startHub(t)

	const n = 16

	watcher := NewSession("w")
	hub.RegisterSession(watcher)
	subscribe(watcher, proto.OccupancyTopic("storm"))

	sessions := make([]*Session, n)
	var wg sync.WaitGroup
	for i := range sessions {
		s := NewSession(fmt.Sprintf("s%d", i))
		sessions[i] = s
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.RegisterSession(s)
			subscribe(s, proto.BroadcastTopic("storm"))
		}()
	}
	wg.Wait()
	waitOccupancy(t, watcher.Events, "storm", n)

	// Half of the sessions drop concurrently, by both paths.
	for i, s := range sessions[:n/2] {
		i, s := i, s
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				s.Commands <- &Command{Kind: CommandUnsubscribe, Topic: proto.BroadcastTopic("storm")}
			} else {
				hub.UnregisterSession(s)
			}
		}()
	}
	wg.Wait()
	waitOccupancy(t, watcher.Events, "storm", n/2)
}

// waitOccupancySilent waits for the room to reach the wanted occupancy using
// a throwaway watcher, leaving the sessions under test untouched.
func waitOccupancySilent(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()

	w := NewSession("probe-" + room)
	hub.RegisterSession(w)
	subscribe(w, proto.OccupancyTopic(room))
	waitOccupancy(t, w.Events, room, want)
	hub.UnregisterSession(w)
}
