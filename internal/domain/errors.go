package domain

import "errors"

var (
	// ErrInvalidQuery is returned when a search query is empty or malformed
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrHistoryDisabled is returned by the no-op history store on write
	ErrHistoryDisabled = errors.New("price history persistence is disabled")

	// ErrStoreConflict is returned when a remote write is rejected because the
	// presented version token is stale
	ErrStoreConflict = errors.New("history store version conflict")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrSourceUnavailable is returned when a retail source cannot be reached
	ErrSourceUnavailable = errors.New("retail source unavailable")

	// ErrBrowserUnavailable is returned when no browser handle is configured
	// for a scraper that needs one
	ErrBrowserUnavailable = errors.New("browser automation unavailable")
)
