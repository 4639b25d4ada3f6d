package cachestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// FileStore keeps the cache as one JSON document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the cache file. A missing or corrupt file reads as empty.
func (s *FileStore) Load(ctx context.Context) (map[string]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]Entry{}, nil
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return map[string]Entry{}, nil
	}
	if entries == nil {
		entries = map[string]Entry{}
	}
	return entries, nil
}

// Save writes the full mapping, creating parent directories as needed.
func (s *FileStore) Save(ctx context.Context, entries map[string]Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
