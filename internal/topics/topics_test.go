package topics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"debatearena/internal/config"
)

func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Add(ctx, "  short    "); !errors.Is(err, ErrTopicTooShort) {
		t.Fatalf("expected ErrTopicTooShort for 9 chars, got %v", err)
	}

	ten := strings.Repeat("a", 10)
	topics, err := store.Add(ctx, ten)
	if err != nil {
		t.Fatalf("Add(%q) error: %v", ten, err)
	}
	if !reflect.DeepEqual(topics, []string{ten}) {
		t.Fatalf("unexpected topics after add: %v", topics)
	}

	topics, err = store.Add(ctx, "  Should homework be banned?  ")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if len(topics) != 2 || topics[1] != "Should homework be banned?" {
		t.Fatalf("expected trimmed topic appended, got %v", topics)
	}

	topics, err = store.Add(ctx, "SHOULD HOMEWORK BE BANNED?")
	if err != nil {
		t.Fatalf("Add() duplicate error: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("case-insensitive duplicate must not be stored, got %v", topics)
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if !reflect.DeepEqual(listed, []string{ten, "Should homework be banned?"}) {
		t.Fatalf("List() = %v", listed)
	}
}

func TestFileStoreContract(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "custom-topics.json"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	storeContract(t, store)
}

func TestFileStoreInitCreatesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "custom-topics.json")
	store := NewFileStore(path)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected empty array, got %q", data)
	}
}

func TestFileStoreWritesTwoSpaceIndent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom-topics.json")
	store := NewFileStore(path)
	if _, err := store.Add(context.Background(), "Cats are better than dogs"); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if want := "[\n  \"Cats are better than dogs\"\n]"; string(data) != want {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestFileStoreCorruptFileDegradesToEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom-topics.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	store := NewFileStore(path)

	topics, err := store.List(context.Background())
	if err == nil {
		t.Fatalf("expected parse error to be reported")
	}
	if topics == nil || len(topics) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", topics)
	}

	if _, err := store.Add(context.Background(), "Space travel is worth it"); err == nil {
		t.Fatalf("expected add to refuse overwriting a corrupt file")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Fatalf("corrupt file was modified: %q", data)
	}
}

func TestSQLiteStoreContract(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "topics.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer store.Close()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	storeContract(t, store)
}

func TestPostgresStoreContract(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	ctx := context.Background()
	store, err := OpenPostgres(ctx, databaseURL, "")
	if err != nil {
		t.Fatalf("OpenPostgres() error: %v", err)
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if _, err := store.pool.Exec(ctx, "TRUNCATE custom_topics"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	storeContract(t, store)
}

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	store, err := New(context.Background(), config.Config{TopicStore: "file", TopicsFile: filepath.Join(dir, "t.json")})
	if err != nil {
		t.Fatalf("New(file) error: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Fatalf("expected *FileStore, got %T", store)
	}

	store, err = New(context.Background(), config.Config{TopicStore: "sqlite", TopicsSQLitePath: filepath.Join(dir, "t.db")})
	if err != nil {
		t.Fatalf("New(sqlite) error: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("expected *SQLiteStore, got %T", store)
	}

	if _, err := New(context.Background(), config.Config{TopicStore: "redis"}); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}
