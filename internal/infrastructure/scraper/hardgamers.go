package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/ofertas-ar/backend/internal/domain"
)

// HardGamers scrapes hardgamers.com.ar. The search page is server-rendered
// with microdata annotations, so a plain HTTP fetch is enough.
type HardGamers struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	userAgent   string
}

// NewHardGamers creates a HardGamers client.
func NewHardGamers(userAgent string) *HardGamers {
	return &HardGamers{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(0.5), 2),
		baseURL:     "https://www.hardgamers.com.ar",
		userAgent:   userAgent,
	}
}

// Name returns the source label attached to every listing.
func (c *HardGamers) Name() string {
	return "HardGamers"
}

// SetBaseURL overrides the site endpoint. Used in tests.
func (c *HardGamers) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// Search queries the site and extracts its product listings.
func (c *HardGamers) Search(ctx context.Context, query string) ([]domain.Product, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	searchURL := fmt.Sprintf("%s/search?text=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return c.parse(doc), nil
}

// parse extracts listings from the search results page.
func (c *HardGamers) parse(doc *goquery.Document) []domain.Product {
	var products []domain.Product

	doc.Find("article.product").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		nombre := strings.TrimSpace(card.Find("h3.product-title[itemprop='name']").First().Text())

		priceEl := card.Find("h2.product-price[itemprop='price']").First()
		precioTexto := strings.TrimSpace(priceEl.Text())
		var precio float64
		// The microdata content attribute carries the clean numeric price;
		// the visible text is only a fallback.
		if content, ok := priceEl.Attr("content"); ok && content != "" {
			precio = ParsePrice(content)
			precioTexto = formatPrecioTexto(precio)
		} else {
			precio = ParsePrice(precioTexto)
		}

		if nombre == "" || precio <= 0 {
			return true
		}

		tienda := strings.TrimSpace(card.Find("h4.subtitle").First().Text())
		imagen, _ := card.Find("img[itemprop='image']").First().Attr("src")
		link, _ := card.Find("a").First().Attr("href")

		products = append(products, domain.Product{
			Nombre:      nombre,
			Precio:      precio,
			PrecioTexto: precioTexto,
			Link:        absoluteURL(c.baseURL, link),
			Fuente:      c.Name(),
			Tienda:      tienda,
			Imagen:      absoluteURL(c.baseURL, imagen),
			Descuento:   ExtractDiscount(card.Text()),
		})
		return len(products) < maxResultsPerSource
	})

	return products
}

// formatPrecioTexto renders a price the way the sites display it:
// "$1.563.890", dots as thousands separators, no decimals.
func formatPrecioTexto(v float64) string {
	whole := strconv.FormatInt(int64(v+0.5), 10)

	var b strings.Builder
	b.WriteByte('$')
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}
	return b.String()
}
