package ws

import (
	"sync"

	"messenger-service/internal/models"
	"messenger-service/internal/realtime"
)

// Hub maintains the presence registry and group rooms, and routes server
// events to the right connections. It implements realtime.Gateway.
type Hub struct {
	presence *Presence
	rooms    map[int]map[realtime.Conn]bool
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		presence: NewPresence(),
		rooms:    make(map[int]map[realtime.Conn]bool),
	}
}

// Register binds the connection's user in the presence registry.
func (h *Hub) Register(conn realtime.Conn) {
	h.presence.Register(conn)
}

// Unregister removes the connection from presence and every room.
func (h *Hub) Unregister(conn realtime.Conn) bool {
	h.mu.Lock()
	for groupID, conns := range h.rooms {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, groupID)
		}
	}
	h.mu.Unlock()
	return h.presence.Unregister(conn)
}

// IsOnline reports presence for a user.
func (h *Hub) IsOnline(userID int) bool {
	return h.presence.IsOnline(userID)
}

// OnlineIDs returns the current online set.
func (h *Hub) OnlineIDs() []int {
	return h.presence.OnlineIDs()
}

// SendToUser delivers to the user's active connection, if any. Absence means
// the user picks the data up later over the REST bootstrap.
func (h *Hub) SendToUser(userID int, event models.ServerEvent) bool {
	conn, ok := h.presence.Lookup(userID)
	if !ok {
		return false
	}
	conn.Send(event)
	return true
}

// BroadcastAll sends to every registered connection. Used for presence
// changes only.
func (h *Hub) BroadcastAll(event models.ServerEvent) {
	h.presence.mu.RLock()
	conns := make([]realtime.Conn, 0, len(h.presence.connByUser))
	for _, conn := range h.presence.connByUser {
		conns = append(conns, conn)
	}
	h.presence.mu.RUnlock()

	for _, conn := range conns {
		conn.Send(event)
	}
}

// BroadcastPair sends to both participants of a direct conversation.
func (h *Hub) BroadcastPair(userA int, userB int, event models.ServerEvent) {
	h.SendToUser(userA, event)
	if userB != userA {
		h.SendToUser(userB, event)
	}
}

// JoinRoom subscribes the connection to a group's events.
func (h *Hub) JoinRoom(groupID int, conn realtime.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[groupID]; !ok {
		h.rooms[groupID] = make(map[realtime.Conn]bool)
	}
	h.rooms[groupID][conn] = true
}

// LeaveRoom unsubscribes the connection.
func (h *Hub) LeaveRoom(groupID int, conn realtime.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[groupID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

// BroadcastRoom sends to all connections subscribed to the group.
func (h *Hub) BroadcastRoom(groupID int, event models.ServerEvent) {
	h.mu.RLock()
	conns := make([]realtime.Conn, 0, len(h.rooms[groupID]))
	for conn := range h.rooms[groupID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.Send(event)
	}
}

// CloseRoom drops the room entirely, e.g. after group deletion.
func (h *Hub) CloseRoom(groupID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, groupID)
}

// RoomSize reports subscriber count, used by tests and metrics.
func (h *Hub) RoomSize(groupID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[groupID])
}

var _ realtime.Gateway = (*Hub)(nil)
