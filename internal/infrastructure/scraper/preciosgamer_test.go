package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const preciosGamerFixture = `<!DOCTYPE html>
<html><body>
<div class="product-b-card">
  <a class="img-container" href="/p/rtx-4060-fullh4rd"><img src="/img/rtx4060.webp"></a>
  <div class="product-description">
    <a class="title-link-text" href="/p/rtx-4060-fullh4rd">Placa de Video MSI GeForce RTX 4060 VENTUS 2X</a>
    <p class="reseller-name">FullH4rd</p>
  </div>
  <div class="current-price">$ 563.890</div>
  <div class="old-price">$ 620.000 <span>9%</span></div>
</div>
<div class="product-b-card">
  <div class="content-container">
    <a class="link-text" href="https://compragamer.com/producto/123">Procesador AMD Ryzen 5 5600</a>
    <p class="reseller-name">Compra Gamer</p>
  </div>
  <div class="price">$189.990</div>
</div>
<div class="product-b-card">
  <div class="product-description">
    <a class="title-link-text" href="/p/agotado">Producto agotado</a>
  </div>
  <div class="current-price">Consultar</div>
</div>
</body></html>`

func TestPreciosGamerSearch(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, preciosGamerFixture)
	}))
	defer server.Close()

	client := NewPreciosGamer(nil, "test-agent")
	client.SetBaseURL(server.URL)

	products, err := client.Search(context.Background(), " RTX 4060 ")
	require.NoError(t, err)

	assert.Equal(t, "/rtx_4060", gotPath, "queries are routed as underscore slugs")

	// The card without a parseable price is dropped.
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "Placa de Video MSI GeForce RTX 4060 VENTUS 2X", first.Nombre)
	assert.Equal(t, 563890.0, first.Precio)
	assert.Equal(t, "$ 563.890", first.PrecioTexto)
	assert.Equal(t, "FullH4rd", first.Tienda)
	assert.Equal(t, "PreciosGamer", first.Fuente)
	assert.Equal(t, server.URL+"/p/rtx-4060-fullh4rd", first.Link)
	assert.Equal(t, server.URL+"/img/rtx4060.webp", first.Imagen)
	assert.Equal(t, "9% OFF", first.Descuento)

	second := products[1]
	assert.Equal(t, "Procesador AMD Ryzen 5 5600", second.Nombre)
	assert.Equal(t, 189990.0, second.Precio, "generic price div is the fallback")
	assert.Equal(t, "Compra Gamer", second.Tienda)
	assert.Equal(t, "https://compragamer.com/producto/123", second.Link, "name link is the fallback when there is no image container")
	assert.Empty(t, second.Imagen)
}

func TestPreciosGamerSearchSiteDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewPreciosGamer(nil, "test-agent")
	client.SetBaseURL(server.URL)

	_, err := client.Search(context.Background(), "rtx")
	assert.Error(t, err)
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://preciosgamer.com"
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"empty", "", ""},
		{"absolute", "https://x.com/a", "https://x.com/a"},
		{"protocol relative", "//cdn.x.com/a.jpg", "https://cdn.x.com/a.jpg"},
		{"rooted path", "/p/abc", "https://preciosgamer.com/p/abc"},
		{"bare path", "p/abc", "https://preciosgamer.com/p/abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, absoluteURL(base, tt.ref))
		})
	}
}
