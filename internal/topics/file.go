package topics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps topics in a pretty-printed JSON array. Add is a plain
// read-modify-write with no locking, so concurrent writers can lose a topic.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "custom-topics.json"
	}
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Init(ctx context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat topics file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create topics dir: %w", err)
		}
	}
	return s.write([]string{})
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	topics, err := s.read()
	if err != nil {
		return []string{}, err
	}
	return topics, nil
}

func (s *FileStore) Add(ctx context.Context, text string) ([]string, error) {
	topic, err := Normalize(text)
	if err != nil {
		return nil, err
	}

	topics, err := s.read()
	if errors.Is(err, fs.ErrNotExist) {
		topics, err = []string{}, nil
	}
	if err != nil {
		// A corrupt file is left alone rather than overwritten with one topic.
		return nil, err
	}
	if containsFold(topics, topic) {
		return topics, nil
	}

	topics = append(topics, topic)
	if err := s.write(topics); err != nil {
		return nil, err
	}
	return topics, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}
	var topics []string
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("parse topics file: %w", err)
	}
	if topics == nil {
		topics = []string{}
	}
	return topics, nil
}

func (s *FileStore) write(topics []string) error {
	data, err := json.MarshalIndent(topics, "", "  ")
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write topics file: %w", err)
	}
	return nil
}
