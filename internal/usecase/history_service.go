package usecase

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ofertas-ar/backend/internal/domain"
)

// Default bounds for the persisted document
const (
	defaultMaxProducts = 1000
	defaultMaxPoints   = 30
)

// History query limits. Out-of-range limits are clamped, never rejected; the
// absent-parameter default lives in the HTTP handler.
const (
	historyLimitMin = 1
	historyLimitMax = 100
)

// HistoryServiceConfig holds configuration for the history service
type HistoryServiceConfig struct {
	MaxProducts int
	MaxPoints   int
}

// HistoryService folds price observations into the persisted document and
// answers historical queries. Each call performs a full read-modify-write
// cycle; the only concurrency protection is whatever the backend provides.
type HistoryService struct {
	store       domain.HistoryStore
	maxProducts int
	maxPoints   int
	now         func() time.Time
}

// NewHistoryService creates a history service on top of the given store
func NewHistoryService(store domain.HistoryStore, config HistoryServiceConfig) *HistoryService {
	maxProducts := config.MaxProducts
	if maxProducts <= 0 {
		maxProducts = defaultMaxProducts
	}
	maxPoints := config.MaxPoints
	if maxPoints <= 0 {
		maxPoints = defaultMaxPoints
	}

	return &HistoryService{
		store:       store,
		maxProducts: maxProducts,
		maxPoints:   maxPoints,
		now:         time.Now,
	}
}

// Backend returns the name of the underlying store.
func (s *HistoryService) Backend() string {
	return s.store.Name()
}

// load reads the persisted document, degrading any failure to a fresh empty
// document. Lost or unreadable history means "first time seen", never an error.
func (s *HistoryService) load(ctx context.Context) *domain.Document {
	doc, err := s.store.Read(ctx)
	if err != nil {
		log.Printf("[HISTORY] read failed, starting fresh: %v", err)
		return domain.NewDocument()
	}
	if doc == nil {
		return domain.NewDocument()
	}
	if doc.Products == nil {
		doc.Products = make(map[string]*domain.HistoryEntry)
	}
	return doc
}

// RecordSnapshot folds one search's products into the document and persists
// it. Products without a positive price are skipped entirely. A failed write
// degrades to Saved=false; the returned changes are always complete.
func (s *HistoryService) RecordSnapshot(ctx context.Context, query string, products []domain.Product) *domain.Snapshot {
	capturedAt := s.now().UTC().Format(time.RFC3339)
	doc := s.load(ctx)
	changes := make(map[string]*domain.Change)

	for _, p := range products {
		if p.Precio <= 0 {
			continue
		}

		key := Fingerprint(p)
		entry, ok := doc.Products[key]
		if !ok {
			entry = &domain.HistoryEntry{
				ID:      key,
				History: []domain.PricePoint{},
			}
			doc.Products[key] = entry
		}

		var previous *float64
		if n := len(entry.History); n > 0 {
			v := entry.History[n-1].Precio
			previous = &v
		}

		// Display data always reflects the latest observation.
		entry.Nombre = p.Nombre
		entry.Tienda = p.Tienda
		entry.Fuente = p.Fuente
		entry.Link = p.Link
		entry.Imagen = p.Imagen
		entry.LastSeenAt = capturedAt

		entry.History = append(entry.History, domain.PricePoint{
			CapturedAt: capturedAt,
			Precio:     p.Precio,
			Query:      query,
		})
		if len(entry.History) > s.maxPoints {
			entry.History = entry.History[len(entry.History)-s.maxPoints:]
		}

		var delta, deltaPct float64
		if previous != nil && *previous > 0 {
			delta = round2(p.Precio - *previous)
			deltaPct = round2(delta / *previous * 100)
		}
		changes[key] = &domain.Change{
			PreviousPrice: previous,
			CurrentPrice:  p.Precio,
			Delta:         delta,
			DeltaPct:      deltaPct,
		}
	}

	doc.UpdatedAt = &capturedAt
	s.prune(doc)

	saved := true
	if err := s.store.Write(ctx, doc); err != nil {
		saved = false
		log.Printf("[HISTORY] write failed on %s: %v", s.store.Name(), err)
	}

	return &domain.Snapshot{
		Saved:      saved,
		CapturedAt: capturedAt,
		Changes:    changes,
		Backend:    s.store.Name(),
	}
}

// GetHistory returns tracked products, optionally filtered by a substring of
// the normalized name or store, most recently seen first.
func (s *HistoryService) GetHistory(ctx context.Context, query string, limit int) *domain.HistoryPage {
	doc := s.load(ctx)

	items := make([]*domain.HistoryEntry, 0, len(doc.Products))
	needle := NormalizeText(query)
	for _, entry := range doc.Products {
		if needle != "" &&
			!strings.Contains(NormalizeText(entry.Nombre), needle) &&
			!strings.Contains(NormalizeStore(entry.Tienda), needle) {
			continue
		}
		items = append(items, entry)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].LastSeenAt > items[j].LastSeenAt
	})

	limit = clamp(limit, historyLimitMin, historyLimitMax)
	if len(items) > limit {
		items = items[:limit]
	}

	return &domain.HistoryPage{
		Backend:   s.store.Name(),
		UpdatedAt: doc.UpdatedAt,
		Total:     len(items),
		Items:     items,
	}
}

// prune drops the least-recently-seen entries once the document exceeds its
// product bound.
func (s *HistoryService) prune(doc *domain.Document) {
	if len(doc.Products) <= s.maxProducts {
		return
	}

	type keyed struct {
		key   string
		entry *domain.HistoryEntry
	}
	entries := make([]keyed, 0, len(doc.Products))
	for k, e := range doc.Products {
		entries = append(entries, keyed{k, e})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].entry.LastSeenAt > entries[j].entry.LastSeenAt
	})

	kept := make(map[string]*domain.HistoryEntry, s.maxProducts)
	for _, item := range entries[:s.maxProducts] {
		kept[item.key] = item.entry
	}
	doc.Products = kept
}

// AttachChanges annotates products with the change computed for their
// fingerprint in the given snapshot, if any.
func AttachChanges(products []domain.Product, changes map[string]*domain.Change) {
	for i := range products {
		if change, ok := changes[Fingerprint(products[i])]; ok {
			products[i].PriceChange = change
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
