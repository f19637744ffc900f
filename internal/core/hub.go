package core

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"roomchat/proto"
)

// Hub is the broadcast router. A single goroutine (Run) applies every
// registry mutation and fanout, which makes join/leave plus occupancy update
// one atomic step and gives all subscribers of a room the same delivery
// order.
type Hub struct {
	registry *Registry
	log      *zerolog.Logger

	register   chan *Session
	unregister chan *Session
	commands   chan sessionCommand

	// live sessions; hub goroutine only. Commands from sessions that have
	// been unregistered are discarded.
	sessions map[*Session]struct{}
}

type sessionCommand struct {
	session *Session
	cmd     *Command
}

// NewHub creates a hub over the given registry. A nil logger disables
// logging.
func NewHub(registry *Registry, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		registry:   registry,
		log:        logger,
		register:   make(chan *Session),
		unregister: make(chan *Session),
		commands:   make(chan sessionCommand),
		sessions:   make(map[*Session]struct{}),
	}
}

// NewRoomID mints a room identifier for the allocation endpoint. Safe from
// any goroutine.
func (h *Hub) NewRoomID() string {
	return h.registry.NewRoomID()
}

// RegisterSession announces a new connection to the hub.
func (h *Hub) RegisterSession(s *Session) {
	h.register <- s
}

// UnregisterSession detaches a connection: the session leaves every room it
// joined, watchers see the new occupancy, and its Events channel is closed.
// Callers must not write to s.Commands afterwards.
func (h *Hub) UnregisterSession(s *Session) {
	h.unregister <- s
}

// Run processes registrations and session commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.register:
			h.sessions[s] = struct{}{}
			go h.pump(ctx, s)
			h.log.Debug().Str("session_id", s.ID).Msg("session registered")
		case s := <-h.unregister:
			h.drop(s)
		case sc := <-h.commands:
			h.dispatch(sc.session, sc.cmd)
		}
	}
}

// pump forwards one session's commands into the hub loop, preserving the
// order the session issued them.
func (h *Hub) pump(ctx context.Context, s *Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-s.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- sessionCommand{session: s, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) drop(s *Session) {
	if _, ok := h.sessions[s]; !ok {
		return
	}
	delete(h.sessions, s)

	for _, roomID := range keys(s.rooms) {
		room, err := h.registry.Leave(roomID, s)
		if err != nil {
			continue
		}
		h.publishOccupancy(room)
	}
	for _, roomID := range keys(s.watching) {
		h.registry.Unwatch(roomID, s)
	}

	// The transport stopped writing before unregistering, so both channels
	// can close here; closing Commands ends the pump goroutine.
	close(s.Commands)
	close(s.Events)
	h.log.Debug().Str("session_id", s.ID).Msg("session unregistered")
}

func (h *Hub) dispatch(s *Session, cmd *Command) {
	if _, ok := h.sessions[s]; !ok {
		return
	}
	switch cmd.Kind {
	case CommandSubscribe:
		h.subscribe(s, cmd.Topic)
	case CommandUnsubscribe:
		h.unsubscribe(s, cmd.Topic)
	case CommandPublish:
		h.publish(s, cmd.Topic, cmd.Body)
	}
}

func (h *Hub) subscribe(s *Session, topic proto.Topic) {
	switch topic.Kind {
	case proto.KindBroadcast:
		room, err := h.registry.Join(topic.Room, s)
		if err != nil {
			s.trySend(&Event{Kind: EventError, Error: brokerError(ErrCodeAlreadyJoined, "already joined "+topic.Room)})
			return
		}
		for _, body := range room.History() {
			s.trySend(&Event{Kind: EventTopicMessage, Topic: topic, Body: body})
		}
		h.publishOccupancy(room)
		h.log.Debug().Str("session_id", s.ID).Str("room", topic.Room).Int("occupancy", room.Occupancy()).Msg("joined room")
	case proto.KindOccupancy:
		room := h.registry.Watch(topic.Room, s)
		// Snapshot so late watchers converge without waiting for the next
		// join or leave.
		s.trySend(&Event{Kind: EventTopicMessage, Topic: topic, Body: strconv.Itoa(room.Occupancy())})
	}
}

func (h *Hub) unsubscribe(s *Session, topic proto.Topic) {
	switch topic.Kind {
	case proto.KindBroadcast:
		room, err := h.registry.Leave(topic.Room, s)
		switch err {
		case nil:
			h.publishOccupancy(room)
			h.log.Debug().Str("session_id", s.ID).Str("room", topic.Room).Int("occupancy", room.Occupancy()).Msg("left room")
		case ErrRoomNotFound:
			s.trySend(&Event{Kind: EventError, Error: brokerError(ErrCodeRoomNotFound, "unknown room "+topic.Room)})
		case ErrNotInRoom:
			s.trySend(&Event{Kind: EventError, Error: brokerError(ErrCodeNotInRoom, "not joined "+topic.Room)})
		}
	case proto.KindOccupancy:
		h.registry.Unwatch(topic.Room, s)
	}
}

func (h *Hub) publish(s *Session, topic proto.Topic, body string) {
	if topic.Kind != proto.KindBroadcast {
		s.trySend(&Event{Kind: EventError, Error: brokerError(ErrCodeBadRequest, "occupancy topics are read-only")})
		return
	}
	room, ok := h.registry.Room(topic.Room)
	if !ok || !room.HasSubscriber(s) {
		s.trySend(&Event{Kind: EventError, Error: brokerError(ErrCodeNotInRoom, "not joined "+topic.Room)})
		return
	}

	// The body stays opaque on the fanout path; it is only inspected to
	// decide whether it belongs in the replay buffer.
	if env, err := proto.DecodeEnvelope([]byte(body)); err == nil && env.Type == proto.TypeChat {
		room.Record(body)
	}

	if dropped := room.Broadcast(&Event{Kind: EventTopicMessage, Topic: topic, Body: body}); dropped > 0 {
		h.log.Warn().Str("room", topic.Room).Int("dropped", dropped).Msg("slow consumers dropped broadcast")
	}
}

func (h *Hub) publishOccupancy(room *Room) {
	room.BroadcastOccupancy(&Event{
		Kind:  EventTopicMessage,
		Topic: proto.OccupancyTopic(room.ID),
		Body:  strconv.Itoa(room.Occupancy()),
	})
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
