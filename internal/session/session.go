package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is a small key/value document store standing in for browser session
// storage: feature code persists JSON documents under namespaced string keys.
// Absent keys read as (nil, false); implementations never invent errors for
// missing data.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
	// Reset removes every stored document. Called on sign-out so session
	// state cannot leak across accounts.
	Reset() error
}

// FileStore keeps each document in its own file under a base directory.
type FileStore struct {
	basePath string
}

// NewFileStore creates a FileStore and ensures the base directory exists.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory %s: %w", basePath, err)
	}
	return &FileStore{basePath: basePath}, nil
}

// sanitizeKey makes a namespaced key safe for filenames.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\':
			return '-'
		}
		return r
	}, key)
}

func (s *FileStore) pathFor(key string) string {
	return filepath.Join(s.basePath, sanitizeKey(key)+".json")
}

// Get reads a document. A missing or unreadable file is an absent key.
func (s *FileStore) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set overwrites a document.
func (s *FileStore) Set(key string, value []byte) error {
	if err := os.WriteFile(s.pathFor(key), value, 0644); err != nil {
		return fmt.Errorf("failed to write session document %s: %w", key, err)
	}
	return nil
}

// Delete removes a document. Deleting an absent key is not an error.
func (s *FileStore) Delete(key string) error {
	if err := os.Remove(s.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session document %s: %w", key, err)
	}
	return nil
}

// Reset removes every stored document.
func (s *FileStore) Reset() error {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list session documents: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove session document %s: %w", match, err)
		}
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	docs map[string][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

func (s *MemStore) Get(key string) ([]byte, bool) {
	data, ok := s.docs[key]
	return data, ok
}

func (s *MemStore) Set(key string, value []byte) error {
	s.docs[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemStore) Delete(key string) error {
	delete(s.docs, key)
	return nil
}

func (s *MemStore) Reset() error {
	s.docs = make(map[string][]byte)
	return nil
}
