package domain

// DocumentVersion is the schema version written into every persisted document.
const DocumentVersion = 1

// PricePoint is one observation of a product's price.
type PricePoint struct {
	CapturedAt string  `json:"captured_at"`
	Precio     float64 `json:"precio"`
	Query      string  `json:"query"`
}

// HistoryEntry is the durable record for one product identity. Display fields
// always reflect the most recent observation; History is bounded FIFO.
type HistoryEntry struct {
	ID         string       `json:"id"`
	Nombre     string       `json:"nombre"`
	Tienda     string       `json:"tienda"`
	Fuente     string       `json:"fuente"`
	Link       string       `json:"link"`
	Imagen     string       `json:"imagen"`
	LastSeenAt string       `json:"last_seen_at"`
	History    []PricePoint `json:"history"`
}

// Document is the persisted root: every tracked product keyed by fingerprint.
// Timestamps are RFC 3339 UTC strings, so lexicographic order is
// chronological order.
type Document struct {
	Version   int                      `json:"version"`
	UpdatedAt *string                  `json:"updated_at"`
	Products  map[string]*HistoryEntry `json:"products"`
}

// NewDocument returns an empty document ready to accept observations.
func NewDocument() *Document {
	return &Document{
		Version:  DocumentVersion,
		Products: make(map[string]*HistoryEntry),
	}
}

// Snapshot is the result of folding one search's products into history.
type Snapshot struct {
	Saved      bool               `json:"saved"`
	CapturedAt string             `json:"captured_at"`
	Changes    map[string]*Change `json:"changes"`
	Backend    string             `json:"backend"`
}

// HistoryPage is the result of a history query.
type HistoryPage struct {
	Backend   string          `json:"backend"`
	UpdatedAt *string         `json:"updated_at"`
	Total     int             `json:"total"`
	Items     []*HistoryEntry `json:"items"`
}
