package models

import "time"

// GroupMessage represents a message sent in a group. ReadBy and DeletedFor are
// aggregated from side tables; a hard delete removes the row entirely, so a
// message that still exists is at most soft-deleted for a subset of members.
type GroupMessage struct {
	ID         int       `db:"id" json:"id"`
	GroupID    int       `db:"group_id" json:"group_id"`
	SenderID   int       `db:"sender_id" json:"sender_id"`
	Content    string    `db:"content" json:"content"`
	Edited     bool      `db:"edited" json:"edited"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	ReadBy     []int     `json:"read_by"`
	DeletedFor []int     `json:"deleted_for,omitempty"`
}
