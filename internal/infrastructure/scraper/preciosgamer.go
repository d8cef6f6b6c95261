// Package scraper implements the source feeds that turn a search query into
// raw product listings, one client per retail aggregator.
package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/ofertas-ar/backend/internal/domain"
)

// maxResultsPerSource bounds how many listings are taken from one source.
const maxResultsPerSource = 20

// productCardSelector matches PreciosGamer's Vue-rendered product cards.
const productCardSelector = "div[class*='product-b']"

// PreciosGamer scrapes preciosgamer.com. The listing grid is rendered
// client-side, so the client prefers a headless browser and falls back to a
// plain HTTP fetch when none is available.
type PreciosGamer struct {
	browser     *Browser
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	userAgent   string
}

// NewPreciosGamer creates a PreciosGamer client. browser may be nil.
func NewPreciosGamer(browser *Browser, userAgent string) *PreciosGamer {
	return &PreciosGamer{
		browser: browser,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(0.5), 2),
		baseURL:     "https://preciosgamer.com",
		userAgent:   userAgent,
	}
}

// Name returns the source label attached to every listing.
func (c *PreciosGamer) Name() string {
	return "PreciosGamer"
}

// SetBaseURL overrides the site endpoint. Used in tests.
func (c *PreciosGamer) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// Search fetches the listing page for a query and extracts its products.
func (c *PreciosGamer) Search(ctx context.Context, query string) ([]domain.Product, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	// The site routes searches as slugs: "rtx 5070 ti" -> /rtx_5070_ti
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(query)), " ", "_")
	pageURL := c.baseURL + "/" + url.PathEscape(slug)

	html, err := c.fetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return c.parse(doc), nil
}

// fetchHTML renders the page in the browser when one is available; the
// structure is there on a plain fetch too, just without prices for some
// result sets, so the HTTP path is kept as a degraded fallback.
func (c *PreciosGamer) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	if c.browser != nil {
		waitFor := productCardSelector + " [class*='current-price']"
		html, err := c.browser.HTML(ctx, pageURL, waitFor, 3*time.Second)
		if err == nil {
			return html, nil
		}
		log.Printf("[PRECIOSGAMER] browser fetch failed, falling back to http: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize html: %w", err)
	}
	return html, nil
}

// parse extracts listings from the rendered page.
func (c *PreciosGamer) parse(doc *goquery.Document) []domain.Product {
	var products []domain.Product

	doc.Find(productCardSelector).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		description := card.Find("div[class*='product-description'], div[class*='content-container']").First()

		nameEl := description.Find("a[class*='title'], a[class*='link-text']").First()
		if nameEl.Length() == 0 {
			nameEl = card.Find("a[class*='title'], a[class*='link-text']").First()
		}

		priceEl := card.Find("div[class*='current-price']").First()
		if priceEl.Length() == 0 {
			priceEl = card.Find("div[class*='price']").First()
		}

		nombre := strings.TrimSpace(nameEl.Text())
		precioTexto := strings.TrimSpace(priceEl.Text())
		precio := ParsePrice(precioTexto)
		if nombre == "" || precio <= 0 {
			return true
		}

		tienda := strings.TrimSpace(description.Find("p[class*='reseller']").First().Text())

		imgContainer := card.Find("a[class*='img-container']").First()
		imagen, _ := imgContainer.Find("img").First().Attr("src")

		link, ok := imgContainer.Attr("href")
		if !ok || link == "" {
			link, _ = nameEl.Attr("href")
		}

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

// absoluteURL resolves scraped hrefs/srcs against the site base.
func absoluteURL(base, ref string) string {
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "http"):
		return ref
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		return base + ref
	default:
		return base + "/" + ref
	}
}
