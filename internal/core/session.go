package core

// Session is one connected client as seen by the broker.
//
// Commands and Events are the only cross-goroutine surface: the transport
// writes Commands and drains Events; everything else is owned by the hub
// goroutine. The hub closes Events when the session is unregistered.
type Session struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	// rooms the session subscribes to and occupancy topics it watches,
	// keyed by room id. Hub goroutine only.
	rooms    map[string]struct{}
	watching map[string]struct{}
}

const (
	commandBuffer = 8
	eventBuffer   = 32
)

// NewSession constructs a session with initialized channels.
func NewSession(id string) *Session {
	return &Session{
		ID:       id,
		Commands: make(chan *Command, commandBuffer),
		Events:   make(chan *Event, eventBuffer),
		rooms:    make(map[string]struct{}),
		watching: make(map[string]struct{}),
	}
}

// trySend delivers an event without blocking. Slow consumers lose events
// rather than stalling the hub. Returns false when the event was dropped.
func (s *Session) trySend(ev *Event) bool {
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}
