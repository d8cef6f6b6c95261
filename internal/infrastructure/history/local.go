// Package history provides the interchangeable persistence backends for the
// price-history document: a local JSON file, a GitHub-hosted JSON file with
// optimistic-concurrency retry, and a no-op fallback.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ofertas-ar/backend/internal/domain"
)

// LocalStore persists the document as a JSON file on the local filesystem.
// Writes are atomic (temp file + rename) so a crash mid-write never corrupts
// the previous version. There is no cross-process locking; concurrent writers
// are last-writer-wins.
type LocalStore struct {
	path string
}

// NewLocalStore creates a local file store at the given path
func NewLocalStore(path string) *LocalStore {
	return &LocalStore{path: path}
}

// Name implements domain.HistoryStore
func (s *LocalStore) Name() string {
	return "local-json"
}

// Read loads the document from disk. A missing file is an empty document.
func (s *LocalStore) Read(ctx context.Context) (*domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewDocument(), nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return &doc, nil
}

// Write serializes the document to a temporary file and renames it over the
// target in one filesystem operation.
func (s *LocalStore) Write(ctx context.Context, doc *domain.Document) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
