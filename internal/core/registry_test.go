package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryNewRoomIDUnique(t *testing.T) {
	reg := NewRegistry(0)

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := reg.NewRoomID()
		require.NotEmpty(t, id)
		require.NotContains(t, seen, id)
		seen[id] = struct{}{}
	}
}

func TestRegistryOccupancyMatchesSubscribers(t *testing.T) {
	reg := NewRegistry(0)

	sessions := make([]*Session, 5)
	for i := range sessions {
		sessions[i] = NewSession(fmt.Sprintf("s%d", i))
		room, err := reg.Join("r1", sessions[i])
		require.NoError(t, err)
		require.Equal(t, i+1, room.Occupancy())
	}
	require.Equal(t, 5, reg.Occupancy("r1"))

	// Double join does not double-count.
	_, err := reg.Join("r1", sessions[0])
	require.ErrorIs(t, err, ErrAlreadyJoined)
	require.Equal(t, 5, reg.Occupancy("r1"))

	for i, s := range sessions {
		_, err := reg.Leave("r1", s)
		require.NoError(t, err)
		require.Equal(t, len(sessions)-i-1, reg.Occupancy("r1"))
	}
}

func TestRegistryLeaveIsIdempotent(t *testing.T) {
	reg := NewRegistry(0)
	alice := NewSession("a")
	bob := NewSession("b")

	_, err := reg.Join("r1", alice)
	require.NoError(t, err)
	_, err = reg.Join("r1", bob)
	require.NoError(t, err)

	_, err = reg.Leave("r1", alice)
	require.NoError(t, err)
	_, err = reg.Leave("r1", alice)
	require.ErrorIs(t, err, ErrNotInRoom)
	require.Equal(t, 1, reg.Occupancy("r1"))

	_, err = reg.Leave("ghost", alice)
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryRoomsAreCreatedLazilyAndCollected(t *testing.T) {
	reg := NewRegistry(0)
	require.Equal(t, 0, reg.RoomCount())

	alice := NewSession("a")
	_, err := reg.Join("r1", alice)
	require.NoError(t, err)
	require.Equal(t, 1, reg.RoomCount())

	// Watchers keep a room alive but do not count toward occupancy.
	bob := NewSession("b")
	reg.Watch("r1", bob)
	require.Equal(t, 1, reg.Occupancy("r1"))

	_, err = reg.Leave("r1", alice)
	require.NoError(t, err)
	require.Equal(t, 0, reg.Occupancy("r1"))
	require.Equal(t, 1, reg.RoomCount())

	reg.Unwatch("r1", bob)
	require.Equal(t, 0, reg.RoomCount())
}

func TestRoomHistoryIsBounded(t *testing.T) {
	room := NewRoom("r1", 3)

	for i := 0; i < 5; i++ {
		room.Record(fmt.Sprintf("m%d", i))
	}

	require.Equal(t, []string{"m2", "m3", "m4"}, room.History())
}
