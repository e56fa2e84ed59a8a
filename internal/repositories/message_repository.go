package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// ErrNotAuthorized is returned when a caller tries to mutate a message they
// did not send. The check lives at the store layer, not the transport layer.
var ErrNotAuthorized = errors.New("not authorized")

const messageColumns = `id, sender_id, receiver_id, content, audio_ref, audio_mime, audio_duration, read, edited, created_at`

// MessageRepository defines interactions for direct 1:1 messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID int, receiverID int, content string, audio *models.Audio) (models.DirectMessage, error)
	History(ctx context.Context, userID int, otherID int) ([]models.DirectMessage, error)
	Unread(ctx context.Context, userID int) ([]models.DirectMessage, error)
	GetMessage(ctx context.Context, messageID int) (models.DirectMessage, error)
	EditMessage(ctx context.Context, messageID int, editorID int, newContent string) (models.DirectMessage, error)
	DeleteMessage(ctx context.Context, messageID int, requesterID int) (models.DirectMessage, error)
	MarkRead(ctx context.Context, readerID int, senderID int) ([]int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a direct message with read=false. The write completes
// before any caller broadcasts the result.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID int, receiverID int, content string, audio *models.Audio) (models.DirectMessage, error) {
	var audioRef, audioMime *string
	var audioDuration *int
	if audio != nil {
		audioRef, audioMime, audioDuration = &audio.Ref, &audio.MimeType, &audio.Duration
	}

	var msg models.DirectMessage
	err := r.db.GetContext(ctx, &msg,
		`INSERT INTO messages (sender_id, receiver_id, content, audio_ref, audio_mime, audio_duration)
         VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+messageColumns,
		senderID, receiverID, content, audioRef, audioMime, audioDuration)
	return msg, err
}

// History returns the ordered conversation between two users.
func (r *MessageRepo) History(ctx context.Context, userID int, otherID int) ([]models.DirectMessage, error) {
	var msgs []models.DirectMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
         ORDER BY created_at ASC`, userID, otherID)
	return msgs, err
}

// Unread returns all unread messages addressed to the user.
func (r *MessageRepo) Unread(ctx context.Context, userID int) ([]models.DirectMessage, error) {
	var msgs []models.DirectMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE receiver_id=$1 AND read = FALSE ORDER BY created_at ASC`, userID)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.DirectMessage, error) {
	var msg models.DirectMessage
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DirectMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// EditMessage replaces the body and marks the message edited. Only the
// original sender may edit; anyone else gets ErrNotAuthorized.
func (r *MessageRepo) EditMessage(ctx context.Context, messageID int, editorID int, newContent string) (models.DirectMessage, error) {
	var msg models.DirectMessage
	err := r.db.GetContext(ctx, &msg,
		`UPDATE messages SET content=$3, edited=TRUE WHERE id=$1 AND sender_id=$2 RETURNING `+messageColumns,
		messageID, editorID, newContent)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DirectMessage{}, r.notFoundOrNotAuthorized(ctx, messageID)
	}
	return msg, err
}

// DeleteMessage hard-deletes a message. Only the original sender may delete.
// The deleted record is returned so callers can scope the broadcast to the
// two participants.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int, requesterID int) (models.DirectMessage, error) {
	var msg models.DirectMessage
	err := r.db.GetContext(ctx, &msg,
		`DELETE FROM messages WHERE id=$1 AND sender_id=$2 RETURNING `+messageColumns,
		messageID, requesterID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DirectMessage{}, r.notFoundOrNotAuthorized(ctx, messageID)
	}
	return msg, err
}

// MarkRead flips read=false to true for every message sent by senderID to
// readerID and returns the affected ids. Calling it again is a no-op.
func (r *MessageRepo) MarkRead(ctx context.Context, readerID int, senderID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`UPDATE messages SET read=TRUE WHERE receiver_id=$1 AND sender_id=$2 AND read = FALSE RETURNING id`,
		readerID, senderID)
	return ids, err
}

func (r *MessageRepo) notFoundOrNotAuthorized(ctx context.Context, messageID int) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM messages WHERE id=$1)`, messageID); err != nil {
		return err
	}
	if exists {
		return ErrNotAuthorized
	}
	return ErrMessageNotFound
}
