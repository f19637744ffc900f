package core

// Room groups the sessions attached to one room id: subscribers receive the
// broadcast stream and count toward occupancy, watchers follow the occupancy
// stream only. All methods run on the hub goroutine.
type Room struct {
	ID string

	subscribers map[*Session]struct{}
	watchers    map[*Session]struct{}

	// history is a bounded ring of recent chat payloads, replayed to new
	// subscribers. In-memory only, dropped with the room.
	history      []string
	historyLimit int
}

// NewRoom constructs an empty room.
func NewRoom(id string, historyLimit int) *Room {
	return &Room{
		ID:           id,
		subscribers:  make(map[*Session]struct{}),
		watchers:     make(map[*Session]struct{}),
		historyLimit: historyLimit,
	}
}

// AddSubscriber inserts a session into the broadcast set. Returns true if
// newly added.
func (r *Room) AddSubscriber(s *Session) bool {
	if _, exists := r.subscribers[s]; exists {
		return false
	}
	r.subscribers[s] = struct{}{}
	return true
}

// RemoveSubscriber deletes a session from the broadcast set. Returns true if
// removed.
func (r *Room) RemoveSubscriber(s *Session) bool {
	if _, exists := r.subscribers[s]; !exists {
		return false
	}
	delete(r.subscribers, s)
	return true
}

// HasSubscriber reports whether the session is in the broadcast set.
func (r *Room) HasSubscriber(s *Session) bool {
	_, ok := r.subscribers[s]
	return ok
}

// AddWatcher attaches a session to the occupancy stream.
func (r *Room) AddWatcher(s *Session) {
	r.watchers[s] = struct{}{}
}

// RemoveWatcher detaches a session from the occupancy stream.
func (r *Room) RemoveWatcher(s *Session) {
	delete(r.watchers, s)
}

// Occupancy is the live subscriber count. Watchers are not counted.
func (r *Room) Occupancy() int {
	return len(r.subscribers)
}

// Empty returns true when no session references the room anymore.
func (r *Room) Empty() bool {
	return len(r.subscribers) == 0 && len(r.watchers) == 0
}

// Broadcast sends an event to every subscriber, the publisher included.
func (r *Room) Broadcast(ev *Event) (dropped int) {
	for s := range r.subscribers {
		if !s.trySend(ev) {
			dropped++
		}
	}
	return dropped
}

// BroadcastOccupancy sends an event to every watcher.
func (r *Room) BroadcastOccupancy(ev *Event) {
	for s := range r.watchers {
		s.trySend(ev)
	}
}

// Record appends a payload to the history ring.
func (r *Room) Record(body string) {
	if r.historyLimit <= 0 {
		return
	}
	r.history = append(r.history, body)
	if len(r.history) > r.historyLimit {
		r.history = r.history[len(r.history)-r.historyLimit:]
	}
}

// History returns the recorded payloads, oldest first.
func (r *Room) History() []string {
	return r.history
}
