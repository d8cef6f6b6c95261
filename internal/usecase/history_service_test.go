package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ofertas-ar/backend/internal/domain"
	"github.com/ofertas-ar/backend/internal/infrastructure/history"
)

// fakeStore keeps the document in memory and can be told to fail.
type fakeStore struct {
	doc      *domain.Document
	readErr  error
	writeErr error
	writes   int
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Read(ctx context.Context) (*domain.Document, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.doc, nil
}

func (f *fakeStore) Write(ctx context.Context, doc *domain.Document) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.doc = doc
	return nil
}

func newTestService(store domain.HistoryStore, config HistoryServiceConfig, at time.Time) *HistoryService {
	s := NewHistoryService(store, config)
	s.now = func() time.Time { return at }
	return s
}

func TestRecordSnapshotFirstObservation(t *testing.T) {
	store := &fakeStore{}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newTestService(store, HistoryServiceConfig{}, at)

	product := domain.Product{
		Nombre: "Placa de Video RTX 4060",
		Tienda: "FullH4rd",
		Fuente: "PreciosGamer",
		Precio: 1000,
	}
	snapshot := service.RecordSnapshot(context.Background(), "rtx 4060", []domain.Product{product})

	if !snapshot.Saved {
		t.Error("Saved = false, want true")
	}
	if snapshot.Backend != "fake" {
		t.Errorf("Backend = %q, want %q", snapshot.Backend, "fake")
	}
	if snapshot.CapturedAt != "2025-03-01T12:00:00Z" {
		t.Errorf("CapturedAt = %q", snapshot.CapturedAt)
	}

	key := Fingerprint(product)
	change, ok := snapshot.Changes[key]
	if !ok {
		t.Fatal("no change recorded for product")
	}
	if change.PreviousPrice != nil {
		t.Errorf("PreviousPrice = %v, want nil", *change.PreviousPrice)
	}
	if change.CurrentPrice != 1000 || change.Delta != 0 || change.DeltaPct != 0 {
		t.Errorf("change = %+v, want current 1000 with zero delta", change)
	}

	entry := store.doc.Products[key]
	if entry == nil {
		t.Fatal("entry not persisted")
	}
	if len(entry.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(entry.History))
	}
	if entry.History[0].Query != "rtx 4060" || entry.History[0].Precio != 1000 {
		t.Errorf("point = %+v", entry.History[0])
	}
	if entry.LastSeenAt != snapshot.CapturedAt {
		t.Errorf("LastSeenAt = %q, want %q", entry.LastSeenAt, snapshot.CapturedAt)
	}
	if store.doc.UpdatedAt == nil || *store.doc.UpdatedAt != snapshot.CapturedAt {
		t.Error("document UpdatedAt not set to the capture time")
	}
}

func TestRecordSnapshotPriceChange(t *testing.T) {
	store := &fakeStore{}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newTestService(store, HistoryServiceConfig{}, at)

	product := domain.Product{Nombre: "RTX 4060", Tienda: "FullH4rd", Fuente: "PreciosGamer", Precio: 1000}
	service.RecordSnapshot(context.Background(), "rtx", []domain.Product{product})

	service.now = func() time.Time { return at.Add(time.Hour) }
	product.Precio = 1100
	snapshot := service.RecordSnapshot(context.Background(), "rtx", []domain.Product{product})

	change := snapshot.Changes[Fingerprint(product)]
	if change == nil {
		t.Fatal("no change recorded")
	}
	if change.PreviousPrice == nil || *change.PreviousPrice != 1000 {
		t.Fatalf("PreviousPrice = %v, want 1000", change.PreviousPrice)
	}
	if change.CurrentPrice != 1100 {
		t.Errorf("CurrentPrice = %v, want 1100", change.CurrentPrice)
	}
	if change.Delta != 100 {
		t.Errorf("Delta = %v, want 100", change.Delta)
	}
	if change.DeltaPct != 10.0 {
		t.Errorf("DeltaPct = %v, want 10.0", change.DeltaPct)
	}

	entry := store.doc.Products[Fingerprint(product)]
	if len(entry.History) != 2 {
		t.Errorf("history length = %d, want 2", len(entry.History))
	}
}

func TestRecordSnapshotRoundsDelta(t *testing.T) {
	store := &fakeStore{}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newTestService(store, HistoryServiceConfig{}, at)

	product := domain.Product{Nombre: "Cooler", Tienda: "Venex", Fuente: "HardGamers", Precio: 2999.99}
	service.RecordSnapshot(context.Background(), "cooler", []domain.Product{product})

	product.Precio = 3100
	snapshot := service.RecordSnapshot(context.Background(), "cooler", []domain.Product{product})

	change := snapshot.Changes[Fingerprint(product)]
	if change.Delta != 100.01 {
		t.Errorf("Delta = %v, want 100.01", change.Delta)
	}
	if change.DeltaPct != 3.33 {
		t.Errorf("DeltaPct = %v, want 3.33", change.DeltaPct)
	}
}

func TestRecordSnapshotSkipsNonPositivePrices(t *testing.T) {
	store := &fakeStore{}
	service := newTestService(store, HistoryServiceConfig{}, time.Now())

	products := []domain.Product{
		{Nombre: "Sin precio", Tienda: "FullH4rd", Fuente: "PreciosGamer", Precio: 0},
		{Nombre: "Consultar", Tienda: "FullH4rd", Fuente: "PreciosGamer", Precio: -1},
	}
	snapshot := service.RecordSnapshot(context.Background(), "x", products)

	if len(snapshot.Changes) != 0 {
		t.Errorf("changes = %d, want 0", len(snapshot.Changes))
	}
	if len(store.doc.Products) != 0 {
		t.Errorf("persisted products = %d, want 0", len(store.doc.Products))
	}
}

func TestRecordSnapshotBoundsHistory(t *testing.T) {
	store := &fakeStore{}
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	service := newTestService(store, HistoryServiceConfig{MaxPoints: 3}, at)

	product := domain.Product{Nombre: "RTX 4060", Tienda: "FullH4rd", Fuente: "PreciosGamer"}
	for i := 0; i < 5; i++ {
		day := at.AddDate(0, 0, i)
		service.now = func() time.Time { return day }
		product.Precio = float64(1000 + i)
		service.RecordSnapshot(context.Background(), "rtx", []domain.Product{product})
	}

	entry := store.doc.Products[Fingerprint(product)]
	if len(entry.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(entry.History))
	}
	if entry.History[0].Precio != 1002 || entry.History[2].Precio != 1004 {
		t.Errorf("oldest points not dropped first: %+v", entry.History)
	}
}

func TestRecordSnapshotPrunesOldestProducts(t *testing.T) {
	store := &fakeStore{}
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	service := newTestService(store, HistoryServiceConfig{MaxProducts: 2}, at)

	for i := 0; i < 3; i++ {
		day := at.AddDate(0, 0, i)
		service.now = func() time.Time { return day }
		product := domain.Product{
			Nombre: fmt.Sprintf("Producto %d", i),
			Tienda: "FullH4rd",
			Fuente: "PreciosGamer",
			Precio: 1000,
		}
		service.RecordSnapshot(context.Background(), "p", []domain.Product{product})
	}

	if len(store.doc.Products) != 2 {
		t.Fatalf("persisted products = %d, want 2", len(store.doc.Products))
	}
	oldest := Fingerprint(domain.Product{Nombre: "Producto 0", Tienda: "FullH4rd", Fuente: "PreciosGamer"})
	if _, ok := store.doc.Products[oldest]; ok {
		t.Error("least recently seen product was not pruned")
	}
}

func TestRecordSnapshotWriteFailure(t *testing.T) {
	store := &fakeStore{writeErr: errors.New("disk full")}
	service := newTestService(store, HistoryServiceConfig{}, time.Now())

	product := domain.Product{Nombre: "RTX 4060", Tienda: "FullH4rd", Fuente: "PreciosGamer", Precio: 1000}
	snapshot := service.RecordSnapshot(context.Background(), "rtx", []domain.Product{product})

	if snapshot.Saved {
		t.Error("Saved = true, want false")
	}
	if len(snapshot.Changes) != 1 {
		t.Errorf("changes = %d, want 1 despite failed write", len(snapshot.Changes))
	}
}

func TestRecordSnapshotNoopBackend(t *testing.T) {
	service := NewHistoryService(history.NewNoopStore(), HistoryServiceConfig{})

	product := domain.Product{Nombre: "RTX 4060", Tienda: "FullH4rd", Fuente: "PreciosGamer", Precio: 1000}
	snapshot := service.RecordSnapshot(context.Background(), "rtx", []domain.Product{product})

	if snapshot.Saved {
		t.Error("Saved = true, want false on the noop backend")
	}
	if snapshot.Backend != "noop" {
		t.Errorf("Backend = %q, want %q", snapshot.Backend, "noop")
	}
	change := snapshot.Changes[Fingerprint(product)]
	if change == nil {
		t.Fatal("changes must still be computed when nothing is persisted")
	}
	if change.PreviousPrice != nil || change.CurrentPrice != 1000 {
		t.Errorf("change = %+v, want first observation at 1000", change)
	}
}

func TestRecordSnapshotReadFailureStartsFresh(t *testing.T) {
	store := &fakeStore{readErr: errors.New("network down")}
	service := newTestService(store, HistoryServiceConfig{}, time.Now())

	product := domain.Product{Nombre: "RTX 4060", Tienda: "FullH4rd", Fuente: "PreciosGamer", Precio: 1000}
	snapshot := service.RecordSnapshot(context.Background(), "rtx", []domain.Product{product})

	if !snapshot.Saved {
		t.Error("Saved = false, want true")
	}
	change := snapshot.Changes[Fingerprint(product)]
	if change == nil || change.PreviousPrice != nil {
		t.Error("unreadable history should mean first observation")
	}
}

func TestGetHistory(t *testing.T) {
	store := &fakeStore{}
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	service := newTestService(store, HistoryServiceConfig{}, at)

	products := []domain.Product{
		{Nombre: "Placa de Video RTX 4060", Tienda: "FullH4rd", Fuente: "PreciosGamer", Precio: 1000},
		{Nombre: "Procesador Ryzen 5 5600", Tienda: "Compra Gamer", Fuente: "PreciosGamer", Precio: 2000},
	}
	service.RecordSnapshot(context.Background(), "varios", products[:1])

	service.now = func() time.Time { return at.Add(time.Hour) }
	service.RecordSnapshot(context.Background(), "varios", products[1:])

	t.Run("returns everything most recent first", func(t *testing.T) {
		page := service.GetHistory(context.Background(), "", 20)
		if page.Total != 2 {
			t.Fatalf("Total = %d, want 2", page.Total)
		}
		if page.Items[0].Nombre != "Procesador Ryzen 5 5600" {
			t.Errorf("first item = %q, want the most recently seen", page.Items[0].Nombre)
		}
		if page.Backend != "fake" {
			t.Errorf("Backend = %q", page.Backend)
		}
		if page.UpdatedAt == nil {
			t.Error("UpdatedAt = nil")
		}
	})

	t.Run("filters by normalized name substring", func(t *testing.T) {
		page := service.GetHistory(context.Background(), "  Rtx 4060 ", 20)
		if page.Total != 1 {
			t.Fatalf("Total = %d, want 1", page.Total)
		}
		if page.Items[0].Nombre != "Placa de Video RTX 4060" {
			t.Errorf("item = %q", page.Items[0].Nombre)
		}
	})

	t.Run("filters by store", func(t *testing.T) {
		page := service.GetHistory(context.Background(), "compragamer", 20)
		if page.Total != 1 {
			t.Fatalf("Total = %d, want 1", page.Total)
		}
	})

	t.Run("no match yields empty page", func(t *testing.T) {
		page := service.GetHistory(context.Background(), "monitor", 20)
		if page.Total != 0 || len(page.Items) != 0 {
			t.Errorf("page = %+v, want empty", page)
		}
	})

	t.Run("clamps limit into [1,100]", func(t *testing.T) {
		for _, limit := range []int{0, -5, 1} {
			page := service.GetHistory(context.Background(), "", limit)
			if page.Total != 1 {
				t.Fatalf("GetHistory(limit=%d) Total = %d, want 1", limit, page.Total)
			}
			if page.Items[0].Nombre != "Procesador Ryzen 5 5600" {
				t.Error("truncation should keep the most recent entries")
			}
		}

		page := service.GetHistory(context.Background(), "", 500)
		if page.Total != 2 {
			t.Errorf("GetHistory(limit=500) Total = %d, want 2", page.Total)
		}
	})
}

func TestAttachChanges(t *testing.T) {
	products := []domain.Product{
		{Nombre: "RTX 4060", Tienda: "FullH4rd", Fuente: "PreciosGamer", Precio: 1100},
		{Nombre: "Ryzen 5 5600", Tienda: "Venex", Fuente: "HardGamers", Precio: 2000},
	}
	previous := 1000.0
	changes := map[string]*domain.Change{
		Fingerprint(products[0]): {PreviousPrice: &previous, CurrentPrice: 1100, Delta: 100, DeltaPct: 10},
	}

	AttachChanges(products, changes)

	if products[0].PriceChange == nil {
		t.Fatal("matching product not annotated")
	}
	if products[0].PriceChange.Delta != 100 {
		t.Errorf("Delta = %v, want 100", products[0].PriceChange.Delta)
	}
	if products[1].PriceChange != nil {
		t.Error("product without a change was annotated")
	}
}
