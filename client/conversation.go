// Package client holds the state kept by a connected chat client: per
// conversation message sequences reconciled against server events, and
// session-wide presence/typing/unread bookkeeping.
package client

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status tracks a message through the local send lifecycle.
type Status string

const (
	StatusSending   Status = "sending"
	StatusDelivered Status = "delivered"
	StatusViewed    Status = "viewed"
	StatusFailed    Status = "failed"
)

var ErrUnknownMessage = errors.New("client: unknown message id")

// Message is the view-model for one entry in a conversation.
type Message struct {
	ID        string
	SenderID  int
	Body      string
	Edited    bool
	Hidden    bool
	Status    Status
	CreatedAt time.Time
}

// Conversation is an ordered message sequence for one direct or group
// thread. Locally-authored messages are inserted optimistically and
// later reconciled with the server's confirmation; broadcast echoes are
// deduplicated by id so the same message is never shown twice.
type Conversation struct {
	mu      sync.Mutex
	selfID  int
	order   []string
	byID    map[string]*Message
	applied map[string]bool
}

func NewConversation(selfID int) *Conversation {
	return &Conversation{
		selfID:  selfID,
		byID:    map[string]*Message{},
		applied: map[string]bool{},
	}
}

// AppendLocal inserts an optimistic entry for a message the user just
// sent. It carries a temporary id until the server confirms the send.
func (c *Conversation) AppendLocal(body string) Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := &Message{
		ID:        "local-" + uuid.NewString(),
		SenderID:  c.selfID,
		Body:      body,
		Status:    StatusSending,
		CreatedAt: time.Now(),
	}
	c.order = append(c.order, msg.ID)
	c.byID[msg.ID] = msg
	return *msg
}

// Confirm reconciles an optimistic entry with the server-assigned id.
// The status becomes viewed when the counterpart was online to receive
// the push, delivered otherwise.
func (c *Conversation) Confirm(tempID string, serverID int, counterpartOnline bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, ok := c.byID[tempID]
	if !ok {
		return ErrUnknownMessage
	}

	newID := strconv.Itoa(serverID)
	delete(c.byID, tempID)
	msg.ID = newID
	msg.Status = StatusDelivered
	if counterpartOnline {
		msg.Status = StatusViewed
	}
	c.byID[newID] = msg
	c.applied[newID] = true

	for i, id := range c.order {
		if id == tempID {
			c.order[i] = newID
			break
		}
	}
	return nil
}

// Fail marks an optimistic entry as failed. The entry stays visible so
// the user can retry by sending again; it is never retried automatically.
func (c *Conversation) Fail(tempID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, ok := c.byID[tempID]
	if !ok {
		return ErrUnknownMessage
	}
	msg.Status = StatusFailed
	return nil
}

// Apply merges a server-broadcast message into the sequence. Returns
// false when the id was already applied, including the echo of a
// confirmed local send.
func (c *Conversation) Apply(id string, senderID int, body string, createdAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.applied[id] {
		return false
	}
	if _, ok := c.byID[id]; ok {
		return false
	}

	msg := &Message{
		ID:        id,
		SenderID:  senderID,
		Body:      body,
		Status:    StatusDelivered,
		CreatedAt: createdAt,
	}
	c.order = append(c.order, id)
	c.byID[id] = msg
	c.applied[id] = true
	return true
}

// ApplyEdit updates a message body in place.
func (c *Conversation) ApplyEdit(id string, newBody string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, ok := c.byID[id]
	if !ok {
		return false
	}
	msg.Body = newBody
	msg.Edited = true
	return true
}

// ApplyDelete removes a message from the sequence. The id stays in the
// applied set so a racing late echo of the same message is not
// re-inserted after the delete.
func (c *Conversation) ApplyDelete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// HideForMe marks a message as hidden for this user only, the client
// view of a per-user soft delete.
func (c *Conversation) HideForMe(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, ok := c.byID[id]
	if !ok {
		return false
	}
	msg.Hidden = true
	return true
}

// MarkViewed flips delivered local messages to viewed, applied when the
// counterpart reports the conversation read.
func (c *Conversation) MarkViewed(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		if msg, ok := c.byID[id]; ok && msg.Status == StatusDelivered {
			msg.Status = StatusViewed
		}
	}
}

// Messages returns a snapshot of the visible sequence in order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, 0, len(c.order))
	for _, id := range c.order {
		if msg, ok := c.byID[id]; ok && !msg.Hidden {
			out = append(out, *msg)
		}
	}
	return out
}
