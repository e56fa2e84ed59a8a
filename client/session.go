package client

import (
	"sort"
	"sync"
)

// SessionState tracks the ephemeral, session-wide signals a client
// receives while connected: who is online, who is typing at us, and
// pending unread notifications per counterpart.
type SessionState struct {
	mu     sync.Mutex
	online map[int]bool
	typing map[int]bool
	unread map[int]int
}

func NewSessionState() *SessionState {
	return &SessionState{
		online: map[int]bool{},
		typing: map[int]bool{},
		unread: map[int]int{},
	}
}

// SetOnline replaces the online set with the full snapshot the server
// broadcasts on every presence change.
func (s *SessionState) SetOnline(ids []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.online = make(map[int]bool, len(ids))
	for _, id := range ids {
		s.online[id] = true
	}
}

func (s *SessionState) UserOffline(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.online, id)
	delete(s.typing, id)
}

func (s *SessionState) IsOnline(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online[id]
}

func (s *SessionState) OnlineIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.online))
	for id := range s.online {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SetTyping records a typing signal from a counterpart. Signals are
// transient and never persisted.
func (s *SessionState) SetTyping(senderID int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.typing[senderID] = true
		return
	}
	delete(s.typing, senderID)
}

func (s *SessionState) IsTyping(senderID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing[senderID]
}

// Notify increments the pending unread counter for a counterpart, from
// a new-message notification received while their thread is closed.
func (s *SessionState) Notify(senderID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread[senderID]++
}

// ClearUnread drops pending notifications for a counterpart, called
// when the user opens the thread and the client sends a read marker.
func (s *SessionState) ClearUnread(senderID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.unread, senderID)
}

func (s *SessionState) Unread(senderID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[senderID]
}
