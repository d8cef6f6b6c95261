package domain

import (
	"context"
	"time"
)

// HistoryStore is the persistence capability for the price-history document.
// Implementations must treat "nothing stored yet" as an empty document, not an
// error. Callers are expected to degrade gracefully: a failed Read means the
// history starts fresh, a failed Write means the snapshot is not durable.
type HistoryStore interface {
	// Name identifies the backend in snapshots ("local-json", "github-json", "noop").
	Name() string
	Read(ctx context.Context) (*Document, error)
	Write(ctx context.Context, doc *Document) error
}

// SourceFeed supplies raw listings from every configured retail source for a
// single search query.
type SourceFeed interface {
	SearchAll(ctx context.Context, query string) (*SearchResults, error)
}

// CacheRepository defines the interface for caching scraped result lists
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]Product, error)
	Set(ctx context.Context, key string, value []Product, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
