// Package topics persists player-submitted debate topics. Every backend keeps
// topics in insertion order, unique ignoring case, and at least
// MinTopicLength characters long.
package topics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"debatearena/internal/config"
)

const MinTopicLength = 10

var ErrTopicTooShort = errors.New("topic must be at least 10 characters")

type Store interface {
	// Init prepares the backing storage. It is safe to call more than once.
	Init(ctx context.Context) error
	// List returns all topics. On failure it returns an empty, non-nil slice
	// together with the error.
	List(ctx context.Context) ([]string, error)
	// Add stores text unless an equal topic (ignoring case) exists, and
	// returns the full list.
	Add(ctx context.Context, text string) ([]string, error)
	Close() error
}

// Normalize trims text and enforces the minimum length.
func Normalize(text string) (string, error) {
	clean := strings.TrimSpace(text)
	if utf8.RuneCountInString(clean) < MinTopicLength {
		return "", ErrTopicTooShort
	}
	return clean, nil
}

func key(topic string) string {
	return strings.ToLower(topic)
}

func containsFold(topics []string, topic string) bool {
	want := key(topic)
	for _, existing := range topics {
		if key(existing) == want {
			return true
		}
	}
	return false
}

// New opens the backend named by cfg.TopicStore and initializes it.
func New(ctx context.Context, cfg config.Config) (Store, error) {
	var store Store
	switch strings.ToLower(strings.TrimSpace(cfg.TopicStore)) {
	case "", "file":
		store = NewFileStore(cfg.TopicsFile)
	case "sqlite":
		sqliteStore, err := OpenSQLite(cfg.TopicsSQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	case "postgres":
		pgStore, err := OpenPostgres(ctx, cfg.DatabaseURL, cfg.MigrationsDir)
		if err != nil {
			return nil, err
		}
		store = pgStore
	default:
		return nil, fmt.Errorf("unsupported TOPIC_STORE %q", cfg.TopicStore)
	}

	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init topic store: %w", err)
	}
	return store, nil
}
