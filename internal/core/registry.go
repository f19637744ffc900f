package core

import "github.com/google/uuid"

// Registry is the table of live rooms. Rooms are created lazily on first
// join or watch and deleted once nothing references them, so long-running
// brokers do not accumulate dead entries.
//
// The registry is not safe for concurrent use on its own; the hub is its
// single writer, which is what keeps occupancy equal to the subscriber set
// size across concurrent joins and leaves.
type Registry struct {
	rooms        map[string]*Room
	historyLimit int
}

// NewRegistry constructs an empty registry. historyLimit bounds each room's
// replay buffer; zero disables replay.
func NewRegistry(historyLimit int) *Registry {
	return &Registry{
		rooms:        make(map[string]*Room),
		historyLimit: historyLimit,
	}
}

// NewRoomID mints a fresh room identifier. The room itself materializes on
// first join. Safe to call from any goroutine.
func (reg *Registry) NewRoomID() string {
	return uuid.NewString()
}

// Join subscribes the session to a room, creating the room if needed.
// Returns ErrAlreadyJoined if the session is already a subscriber.
func (reg *Registry) Join(roomID string, s *Session) (*Room, error) {
	room := reg.room(roomID)
	if !room.AddSubscriber(s) {
		return room, ErrAlreadyJoined
	}
	s.rooms[roomID] = struct{}{}
	return room, nil
}

// Leave removes the session from a room's broadcast set. The room is
// returned even when the mutation fails so callers can still publish the
// occupancy that watchers should converge to.
func (reg *Registry) Leave(roomID string, s *Session) (*Room, error) {
	room, ok := reg.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if !room.RemoveSubscriber(s) {
		return room, ErrNotInRoom
	}
	delete(s.rooms, roomID)
	reg.collect(room)
	return room, nil
}

// Watch attaches the session to a room's occupancy stream, creating the
// room if needed.
func (reg *Registry) Watch(roomID string, s *Session) *Room {
	room := reg.room(roomID)
	room.AddWatcher(s)
	s.watching[roomID] = struct{}{}
	return room
}

// Unwatch detaches the session from a room's occupancy stream. Idempotent.
func (reg *Registry) Unwatch(roomID string, s *Session) {
	room, ok := reg.rooms[roomID]
	if !ok {
		return
	}
	room.RemoveWatcher(s)
	delete(s.watching, roomID)
	reg.collect(room)
}

// Room looks up a live room by id.
func (reg *Registry) Room(roomID string) (*Room, bool) {
	room, ok := reg.rooms[roomID]
	return room, ok
}

// Occupancy reports the live subscriber count for a room; zero for rooms
// that do not exist.
func (reg *Registry) Occupancy(roomID string) int {
	room, ok := reg.rooms[roomID]
	if !ok {
		return 0
	}
	return room.Occupancy()
}

// RoomCount reports how many rooms are live.
func (reg *Registry) RoomCount() int {
	return len(reg.rooms)
}

func (reg *Registry) room(roomID string) *Room {
	room, ok := reg.rooms[roomID]
	if !ok {
		room = NewRoom(roomID, reg.historyLimit)
		reg.rooms[roomID] = room
	}
	return room
}

func (reg *Registry) collect(room *Room) {
	if room.Empty() {
		delete(reg.rooms, room.ID)
	}
}
