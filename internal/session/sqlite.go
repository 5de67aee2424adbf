package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zhaowei/shopmate/internal/model/chat"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists sessions as JSON documents in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database and prepares the schema.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL keeps concurrent readers cheap; writes stay serialized per key
	// at the manager layer.
	dsn := dbPath + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_key TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Get(ctx context.Context, key string) (*chat.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM sessions WHERE session_key = ?`, key)

	var doc string
	err := row.Scan(&doc)
	if err == sql.ErrNoRows {
		fresh := chat.NewSession(key)
		if err := s.Put(ctx, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session %s: %w", key, err)
	}
	return decodeSession([]byte(doc))
}

func (s *SQLiteStore) Put(ctx context.Context, sess *chat.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	doc, err := encodeSession(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.Key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_key, doc, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		sess.Key, string(doc), sess.CreatedAt.Unix(), sess.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", sess.Key, err)
	}
	return nil
}
