package ws

import (
	"testing"

	"github.com/stretchr/testify/require"

	"messenger-service/internal/models"
)

func TestHubSendToUser(t *testing.T) {
	hub := NewHub()
	conn := newStubConn(1)
	hub.Register(conn)

	event := models.ServerEvent{Event: "ping"}
	require.True(t, hub.SendToUser(1, event))
	require.False(t, hub.SendToUser(2, event))
	require.Equal(t, []models.ServerEvent{event}, conn.sent())
}

func TestHubBroadcastAll(t *testing.T) {
	hub := NewHub()
	alice := newStubConn(1)
	bob := newStubConn(2)
	hub.Register(alice)
	hub.Register(bob)

	hub.BroadcastAll(models.ServerEvent{Event: "presence"})

	require.Len(t, alice.sent(), 1)
	require.Len(t, bob.sent(), 1)
}

func TestHubBroadcastPair(t *testing.T) {
	hub := NewHub()
	alice := newStubConn(1)
	bob := newStubConn(2)
	carol := newStubConn(3)
	hub.Register(alice)
	hub.Register(bob)
	hub.Register(carol)

	hub.BroadcastPair(1, 2, models.ServerEvent{Event: "edit"})

	require.Len(t, alice.sent(), 1)
	require.Len(t, bob.sent(), 1)
	require.Empty(t, carol.sent())
}

func TestHubBroadcastPairSameUserOnce(t *testing.T) {
	hub := NewHub()
	alice := newStubConn(1)
	hub.Register(alice)

	hub.BroadcastPair(1, 1, models.ServerEvent{Event: "edit"})

	require.Len(t, alice.sent(), 1)
}

func TestHubRooms(t *testing.T) {
	hub := NewHub()
	alice := newStubConn(1)
	bob := newStubConn(2)
	hub.Register(alice)
	hub.Register(bob)
	hub.JoinRoom(7, alice)
	hub.JoinRoom(7, bob)

	hub.BroadcastRoom(7, models.ServerEvent{Event: "groupMsg"})
	require.Len(t, alice.sent(), 1)
	require.Len(t, bob.sent(), 1)
	require.Equal(t, 2, hub.RoomSize(7))

	hub.LeaveRoom(7, bob)
	hub.BroadcastRoom(7, models.ServerEvent{Event: "groupMsg"})
	require.Len(t, alice.sent(), 2)
	require.Len(t, bob.sent(), 1)
	require.Equal(t, 1, hub.RoomSize(7))
}

func TestHubCloseRoom(t *testing.T) {
	hub := NewHub()
	alice := newStubConn(1)
	hub.Register(alice)
	hub.JoinRoom(7, alice)

	hub.CloseRoom(7)

	require.Equal(t, 0, hub.RoomSize(7))
	hub.BroadcastRoom(7, models.ServerEvent{Event: "groupMsg"})
	require.Empty(t, alice.sent())
}

func TestHubUnregisterLeavesRooms(t *testing.T) {
	hub := NewHub()
	alice := newStubConn(1)
	hub.Register(alice)
	hub.JoinRoom(7, alice)
	hub.JoinRoom(8, alice)

	require.True(t, hub.Unregister(alice))

	require.Equal(t, 0, hub.RoomSize(7))
	require.Equal(t, 0, hub.RoomSize(8))
	require.False(t, hub.IsOnline(1))
}

func TestHubBroadcastRoomEmptyRoom(t *testing.T) {
	hub := NewHub()
	// no subscribers; must not panic
	hub.BroadcastRoom(99, models.ServerEvent{Event: "noop"})
}
