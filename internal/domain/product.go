package domain

// Product represents a single listing scraped from one of the retail sources.
// Field names follow the wire format consumed by the frontend, so they stay
// in Spanish (nombre, tienda, precio...).
type Product struct {
	Nombre      string  `json:"nombre"`
	Precio      float64 `json:"precio"`
	PrecioTexto string  `json:"precio_texto,omitempty"`
	Link        string  `json:"link"`
	Fuente      string  `json:"fuente"` // e.g., "PreciosGamer"
	Tienda      string  `json:"tienda"`
	Imagen      string  `json:"imagen"`
	Descuento   string  `json:"descuento,omitempty"`

	// PriceChange is attached after the observation is folded into history.
	PriceChange *Change `json:"price_change,omitempty"`
}

// Change describes how a product's price moved since its previous observation.
// PreviousPrice is nil on the first observation of a product.
type Change struct {
	PreviousPrice *float64 `json:"previous_price"`
	CurrentPrice  float64  `json:"current_price"`
	Delta         float64  `json:"delta"`
	DeltaPct      float64  `json:"delta_pct"`
}

// SearchResults holds the raw per-source listings for one query plus the
// combined, deduplicated view.
type SearchResults struct {
	Query        string    `json:"query"`
	PreciosGamer []Product `json:"preciosgamer"`
	HardGamers   []Product `json:"hardgamers"`
	Todos        []Product `json:"todos,omitempty"`
	Total        int       `json:"total"`
}
