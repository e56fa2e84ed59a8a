package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL,
            receiver_id INT NOT NULL,
            content TEXT NOT NULL DEFAULT '',
            audio_ref TEXT,
            audio_mime TEXT,
            audio_duration INT,
            read BOOLEAN NOT NULL DEFAULT FALSE,
            edited BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages (sender_id, receiver_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages (receiver_id) WHERE read = FALSE;`,
		`CREATE TABLE IF NOT EXISTS groups (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            owner_id INT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS group_members (
            group_id INT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            user_id INT NOT NULL,
            role TEXT NOT NULL DEFAULT 'member',
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (group_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS group_messages (
            id SERIAL PRIMARY KEY,
            group_id INT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
            sender_id INT NOT NULL,
            content TEXT NOT NULL,
            edited BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS group_message_reads (
            message_id INT NOT NULL REFERENCES group_messages(id) ON DELETE CASCADE,
            user_id INT NOT NULL,
            PRIMARY KEY (message_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS group_message_deletions (
            message_id INT NOT NULL REFERENCES group_messages(id) ON DELETE CASCADE,
            user_id INT NOT NULL,
            PRIMARY KEY (message_id, user_id)
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
