package topics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps topics in a single table. The unique topic_key column
// makes concurrent adds safe, unlike the file backend.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS custom_topics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic TEXT NOT NULL,
		topic_key TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create custom_topics: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT topic FROM custom_topics ORDER BY id`)
	if err != nil {
		return []string{}, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	topics := []string{}
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return []string{}, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return []string{}, fmt.Errorf("iterate topics: %w", err)
	}
	return topics, nil
}

func (s *SQLiteStore) Add(ctx context.Context, text string) ([]string, error) {
	topic, err := Normalize(text)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO custom_topics (topic, topic_key) VALUES (?, ?)`,
		topic, key(topic),
	); err != nil {
		return nil, fmt.Errorf("insert topic: %w", err)
	}
	return s.List(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
