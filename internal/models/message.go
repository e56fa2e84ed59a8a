package models

import "time"

// Audio is an opaque media payload attached to a direct message. The service
// never interprets the content; it only stores the reference and metadata.
type Audio struct {
	Ref      string `db:"audio_ref" json:"ref"`
	MimeType string `db:"audio_mime" json:"mime_type"`
	Duration int    `db:"audio_duration" json:"duration"`
}

// DirectMessage represents a 1:1 message between two users.
type DirectMessage struct {
	ID            int       `db:"id" json:"id"`
	SenderID      int       `db:"sender_id" json:"sender_id"`
	ReceiverID    int       `db:"receiver_id" json:"receiver_id"`
	Content       string    `db:"content" json:"content"`
	AudioRef      *string   `db:"audio_ref" json:"audio_ref,omitempty"`
	AudioMime     *string   `db:"audio_mime" json:"audio_mime,omitempty"`
	AudioDuration *int      `db:"audio_duration" json:"audio_duration,omitempty"`
	Read          bool      `db:"read" json:"read"`
	Edited        bool      `db:"edited" json:"edited"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
