package topics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"debatearena/internal/db"
)

type PostgresStore struct {
	pool          *pgxpool.Pool
	migrationsDir string
}

func OpenPostgres(ctx context.Context, databaseURL, migrationsDir string) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool, migrationsDir: migrationsDir}, nil
}

func (s *PostgresStore) Init(ctx context.Context) error {
	return db.RunMigrations(ctx, s.pool, s.migrationsDir)
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT topic FROM custom_topics ORDER BY id`)
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

func (s *PostgresStore) Add(ctx context.Context, text string) ([]string, error) {
	topic, err := Normalize(text)
	if err != nil {
		return nil, err
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO custom_topics (topic, topic_key)
		VALUES ($1, $2)
		ON CONFLICT (topic_key) DO NOTHING
	`, topic, key(topic)); err != nil {
		return nil, fmt.Errorf("insert topic: %w", err)
	}
	return s.List(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
