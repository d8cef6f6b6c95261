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

const hardGamersFixture = `<!DOCTYPE html>
<html><body>
<article class="product">
  <a href="/producto/rtx-4060-ventus"><img itemprop="image" src="/img/rtx4060.jpg"></a>
  <h3 class="product-title" itemprop="name">Placa de Video MSI GeForce RTX 4060 VENTUS 2X</h3>
  <h2 class="product-price" itemprop="price" content="563890">$ 563.890</h2>
  <h4 class="subtitle">FullH4rd</h4>
  <span class="badge">15%</span>
</article>
<article class="product">
  <a href="https://tienda.example.com/ryzen-5600"><img itemprop="image" src="//cdn.example.com/ryzen.jpg"></a>
  <h3 class="product-title" itemprop="name">Procesador AMD Ryzen 5 5600</h3>
  <h2 class="product-price" itemprop="price">$ 189.990</h2>
  <h4 class="subtitle">Venex</h4>
</article>
<article class="product">
  <h3 class="product-title" itemprop="name">Sin precio publicado</h3>
  <h2 class="product-price" itemprop="price"></h2>
</article>
<article class="product">
  <h2 class="product-price" itemprop="price" content="1000">$ 1.000</h2>
</article>
</body></html>`

func TestHardGamersSearch(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("text")
		fmt.Fprint(w, hardGamersFixture)
	}))
	defer server.Close()

	client := NewHardGamers("test-agent")
	client.SetBaseURL(server.URL)

	products, err := client.Search(context.Background(), "rtx 4060")
	require.NoError(t, err)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "rtx 4060", gotQuery)

	// Cards without a name or a positive price are dropped.
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "Placa de Video MSI GeForce RTX 4060 VENTUS 2X", first.Nombre)
	assert.Equal(t, 563890.0, first.Precio, "price should come from the microdata content attribute")
	assert.Equal(t, "$563.890", first.PrecioTexto)
	assert.Equal(t, "FullH4rd", first.Tienda)
	assert.Equal(t, "HardGamers", first.Fuente)
	assert.Equal(t, server.URL+"/producto/rtx-4060-ventus", first.Link)
	assert.Equal(t, server.URL+"/img/rtx4060.jpg", first.Imagen)
	assert.Equal(t, "15% OFF", first.Descuento)

	second := products[1]
	assert.Equal(t, 189990.0, second.Precio, "visible text is the fallback price")
	assert.Equal(t, "$ 189.990", second.PrecioTexto)
	assert.Equal(t, "https://tienda.example.com/ryzen-5600", second.Link, "absolute links pass through")
	assert.Equal(t, "https://cdn.example.com/ryzen.jpg", second.Imagen, "protocol-relative srcs get https")
	assert.Empty(t, second.Descuento)
}

func TestHardGamersSearchSiteDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHardGamers("test-agent")
	client.SetBaseURL(server.URL)

	_, err := client.Search(context.Background(), "rtx")
	assert.Error(t, err)
}

func TestHardGamersSearchEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Sin resultados</p></body></html>`)
	}))
	defer server.Close()

	client := NewHardGamers("test-agent")
	client.SetBaseURL(server.URL)

	products, err := client.Search(context.Background(), "zzzzz")
	require.NoError(t, err)
	assert.Empty(t, products)
}
