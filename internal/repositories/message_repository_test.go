package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func messageRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "sender_id", "receiver_id", "content",
		"audio_ref", "audio_mime", "audio_duration",
		"read", "edited", "created_at",
	})
}

func TestCreateMessageHistoryRoundTrip(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)
	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO messages (sender_id, receiver_id, content, audio_ref, audio_mime, audio_duration)`)).
		WithArgs(1, 2, "hello there", nil, nil, nil).
		WillReturnRows(messageRows().AddRow(10, 1, 2, "hello there", nil, nil, nil, false, false, created))

	msg, err := repo.CreateMessage(context.Background(), 1, 2, "hello there", nil)
	require.NoError(t, err)
	assert.Equal(t, 10, msg.ID)
	assert.False(t, msg.Read)

	mock.ExpectQuery(regexp.QuoteMeta(`(sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)`)).
		WithArgs(2, 1).
		WillReturnRows(messageRows().AddRow(10, 1, 2, "hello there", nil, nil, nil, false, false, created))

	history, err := repo.History(context.Background(), 2, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg, history[0])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEditMessageByNonSender(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE messages SET content=$3, edited=TRUE WHERE id=$1 AND sender_id=$2`)).
		WithArgs(10, 99, "tampered").
		WillReturnRows(messageRows())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM messages WHERE id=$1)`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.EditMessage(context.Background(), 10, 99, "tampered")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEditMessageMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE messages SET content=$3, edited=TRUE WHERE id=$1 AND sender_id=$2`)).
		WithArgs(404, 1, "anything").
		WillReturnRows(messageRows())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM messages WHERE id=$1)`)).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.EditMessage(context.Background(), 404, 1, "anything")
	assert.ErrorIs(t, err, ErrMessageNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMessageByNonSender(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM messages WHERE id=$1 AND sender_id=$2`)).
		WithArgs(10, 99).
		WillReturnRows(messageRows())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM messages WHERE id=$1)`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.DeleteMessage(context.Background(), 10, 99)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE messages SET read=TRUE WHERE receiver_id=$1 AND sender_id=$2 AND read = FALSE`)).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4).AddRow(7))

	ids, err := repo.MarkRead(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 7}, ids)

	// everything is read now, the same call touches nothing
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE messages SET read=TRUE WHERE receiver_id=$1 AND sender_id=$2 AND read = FALSE`)).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ids, err = repo.MarkRead(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, mock.ExpectationsWereMet())
}
