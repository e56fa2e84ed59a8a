package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

// GroupMessageRepository defines interactions for group messages.
type GroupMessageRepository interface {
	CreateGroupMessage(ctx context.Context, groupID int, senderID int, content string) (models.GroupMessage, error)
	ListGroupMessages(ctx context.Context, groupID int, userID int) ([]models.GroupMessage, error)
	GetGroupMessage(ctx context.Context, messageID int) (models.GroupMessage, error)
	EditGroupMessage(ctx context.Context, messageID int, editorID int, newContent string) (models.GroupMessage, error)
	AddDeletion(ctx context.Context, messageID int, userID int) (int, error)
	DeleteForAll(ctx context.Context, messageID int) error
	MarkGroupRead(ctx context.Context, groupID int, userID int) error
}

// GroupMessageRepo is a sqlx-backed implementation.
type GroupMessageRepo struct {
	db *sqlx.DB
}

// NewGroupMessageRepo constructs a GroupMessageRepo.
func NewGroupMessageRepo(db *sqlx.DB) *GroupMessageRepo {
	return &GroupMessageRepo{db: db}
}

// CreateGroupMessage persists a group message. The sender is seeded into the
// readBy set, matching what their client already shows.
func (r *GroupMessageRepo) CreateGroupMessage(ctx context.Context, groupID int, senderID int, content string) (models.GroupMessage, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.GroupMessage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var msg models.GroupMessage
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO group_messages (group_id, sender_id, content) VALUES ($1, $2, $3)
         RETURNING id, group_id, sender_id, content, edited, created_at`,
		groupID, senderID, content).
		Scan(&msg.ID, &msg.GroupID, &msg.SenderID, &msg.Content, &msg.Edited, &msg.CreatedAt); err != nil {
		return models.GroupMessage{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO group_message_reads (message_id, user_id) VALUES ($1, $2)`, msg.ID, senderID); err != nil {
		return models.GroupMessage{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.GroupMessage{}, err
	}
	msg.ReadBy = []int{senderID}
	return msg, nil
}

// ListGroupMessages returns ordered messages, skipping those the user has
// deleted for themselves. Hard-deleted messages no longer exist as rows.
func (r *GroupMessageRepo) ListGroupMessages(ctx context.Context, groupID int, userID int) ([]models.GroupMessage, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT m.id, m.group_id, m.sender_id, m.content, m.edited, m.created_at,
                COALESCE(ARRAY_AGG(DISTINCT r.user_id) FILTER (WHERE r.user_id IS NOT NULL), '{}') AS read_by
         FROM group_messages m
         LEFT JOIN group_message_reads r ON r.message_id = m.id
         WHERE m.group_id=$1
           AND NOT EXISTS (SELECT 1 FROM group_message_deletions d WHERE d.message_id = m.id AND d.user_id = $2)
         GROUP BY m.id
         ORDER BY m.created_at ASC`, groupID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.GroupMessage
	for rows.Next() {
		var msg models.GroupMessage
		var readBy pq.Int64Array
		if err := rows.Scan(&msg.ID, &msg.GroupID, &msg.SenderID, &msg.Content, &msg.Edited, &msg.CreatedAt, &readBy); err != nil {
			return nil, err
		}
		msg.ReadBy = toIntSlice(readBy)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// GetGroupMessage fetches a single message with its readBy and deletedFor sets.
func (r *GroupMessageRepo) GetGroupMessage(ctx context.Context, messageID int) (models.GroupMessage, error) {
	var msg models.GroupMessage
	var readBy, deletedFor pq.Int64Array
	err := r.db.QueryRowxContext(ctx,
		`SELECT m.id, m.group_id, m.sender_id, m.content, m.edited, m.created_at,
                COALESCE(ARRAY_AGG(DISTINCT r.user_id) FILTER (WHERE r.user_id IS NOT NULL), '{}') AS read_by,
                COALESCE(ARRAY_AGG(DISTINCT d.user_id) FILTER (WHERE d.user_id IS NOT NULL), '{}') AS deleted_for
         FROM group_messages m
         LEFT JOIN group_message_reads r ON r.message_id = m.id
         LEFT JOIN group_message_deletions d ON d.message_id = m.id
         WHERE m.id=$1
         GROUP BY m.id`, messageID).
		Scan(&msg.ID, &msg.GroupID, &msg.SenderID, &msg.Content, &msg.Edited, &msg.CreatedAt, &readBy, &deletedFor)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupMessage{}, ErrMessageNotFound
	}
	if err != nil {
		return models.GroupMessage{}, err
	}
	msg.ReadBy = toIntSlice(readBy)
	msg.DeletedFor = toIntSlice(deletedFor)
	return msg, nil
}

// EditGroupMessage replaces the body and marks it edited (sender only).
func (r *GroupMessageRepo) EditGroupMessage(ctx context.Context, messageID int, editorID int, newContent string) (models.GroupMessage, error) {
	var msg models.GroupMessage
	err := r.db.QueryRowxContext(ctx,
		`UPDATE group_messages SET content=$3, edited=TRUE WHERE id=$1 AND sender_id=$2
         RETURNING id, group_id, sender_id, content, edited, created_at`,
		messageID, editorID, newContent).
		Scan(&msg.ID, &msg.GroupID, &msg.SenderID, &msg.Content, &msg.Edited, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_messages WHERE id=$1)`, messageID); err != nil {
			return models.GroupMessage{}, err
		}
		if exists {
			return models.GroupMessage{}, ErrNotAuthorized
		}
		return models.GroupMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// AddDeletion appends the user to the message's deletedFor set and returns its
// resulting size. Re-deleting is idempotent.
func (r *GroupMessageRepo) AddDeletion(ctx context.Context, messageID int, userID int) (int, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_messages WHERE id=$1)`, messageID); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrMessageNotFound
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO group_message_deletions (message_id, user_id) VALUES ($1, $2)
         ON CONFLICT (message_id, user_id) DO NOTHING`, messageID, userID); err != nil {
		return 0, err
	}

	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM group_message_deletions WHERE message_id=$1`, messageID)
	return count, err
}

// DeleteForAll removes the message row; readBy and deletedFor cascade.
func (r *GroupMessageRepo) DeleteForAll(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// MarkGroupRead adds the user to readBy for every message in the group.
func (r *GroupMessageRepo) MarkGroupRead(ctx context.Context, groupID int, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_message_reads (message_id, user_id)
         SELECT id, $2 FROM group_messages WHERE group_id=$1
         ON CONFLICT (message_id, user_id) DO NOTHING`, groupID, userID)
	return err
}

func toIntSlice(arr pq.Int64Array) []int {
	out := make([]int, 0, len(arr))
	for _, v := range arr {
		out = append(out, int(v))
	}
	return out
}
