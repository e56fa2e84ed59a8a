package ws

import (
	"sort"
	"sync"

	"messenger-service/internal/realtime"
)

// Presence maps a user to their single active realtime connection. Both
// directions are indexed so disconnect handling stays O(1).
type Presence struct {
	mu         sync.RWMutex
	connByUser map[int]realtime.Conn
	userByConn map[realtime.Conn]int
}

// NewPresence creates an empty registry.
func NewPresence() *Presence {
	return &Presence{
		connByUser: make(map[int]realtime.Conn),
		userByConn: make(map[realtime.Conn]int),
	}
}

// Register maps the user to the connection. A second registration for the
// same user silently replaces the first.
func (p *Presence) Register(conn realtime.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	userID := conn.UserID()
	if old, ok := p.connByUser[userID]; ok && old != conn {
		delete(p.userByConn, old)
	}
	p.connByUser[userID] = conn
	p.userByConn[conn] = userID
}

// Unregister removes the connection and reports whether it was still the
// active one for its user. A connection that was already replaced returns
// false, so no offline event fires for a user who reconnected.
func (p *Presence) Unregister(conn realtime.Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	userID, ok := p.userByConn[conn]
	if !ok {
		return false
	}
	delete(p.userByConn, conn)
	if p.connByUser[userID] == conn {
		delete(p.connByUser, userID)
		return true
	}
	return false
}

// Lookup returns the user's active connection, if any.
func (p *Presence) Lookup(userID int) (realtime.Conn, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	conn, ok := p.connByUser[userID]
	return conn, ok
}

// IsOnline reports whether the user has an active connection.
func (p *Presence) IsOnline(userID int) bool {
	_, ok := p.Lookup(userID)
	return ok
}

// OnlineIDs returns the sorted set of online user ids.
func (p *Presence) OnlineIDs() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]int, 0, len(p.connByUser))
	for id := range p.connByUser {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
