package history

import (
	"context"

	"github.com/ofertas-ar/backend/internal/domain"
)

// NoopStore is the backend used when no persistence is configured. Reads are
// always empty and writes always fail, so the rest of the system degrades to
// "history disabled" instead of erroring.
type NoopStore struct{}

// NewNoopStore creates a no-op store
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

// Name implements domain.HistoryStore
func (s *NoopStore) Name() string {
	return "noop"
}

// Read always returns an empty document.
func (s *NoopStore) Read(ctx context.Context) (*domain.Document, error) {
	return domain.NewDocument(), nil
}

// Write always reports the snapshot as not persisted.
func (s *NoopStore) Write(ctx context.Context, doc *domain.Document) error {
	return domain.ErrHistoryDisabled
}
