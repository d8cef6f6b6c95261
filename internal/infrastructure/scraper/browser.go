package scraper

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/ofertas-ar/backend/internal/domain"
)

// BrowserConfig configures the headless browser.
type BrowserConfig struct {
	UserAgent string
}

// Browser is an explicitly owned headless-Chrome handle. It is constructed
// once at startup, passed by reference into the scraper clients that need
// rendered pages, and closed deterministically on shutdown. Page creation is
// thread-safe.
type Browser struct {
	cfg BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewBrowser creates an unstarted browser handle. Call Start before use.
func NewBrowser(cfg BrowserConfig) *Browser {
	return &Browser{cfg: cfg}
}

// Start launches headless Chrome and connects to it.
func (b *Browser) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("browser: handle is closed")
	}
	if b.browser != nil {
		return nil
	}

	l := launcher.New().
		Headless(true).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("window-size", "1920,1080").
		Set("disable-blink-features", "AutomationControlled")
	if b.cfg.UserAgent != "" {
		l = l.Set("user-agent", b.cfg.UserAgent)
	}

	wsURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("browser: launch: %w", err)
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return fmt.Errorf("browser: connect: %w", err)
	}

	b.lnch = l
	b.browser = browser
	log.Printf("[BROWSER] headless chrome launched at %s", wsURL)
	return nil
}

// Close shuts down Chrome. Safe to call more than once.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.browser != nil {
		b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return nil
}

// HTML navigates to a URL in a fresh stealth tab, waits for waitSelector to
// appear (bounded by ctx), gives the page settle time to finish rendering,
// and returns the rendered document HTML. The tab is always closed.
func (b *Browser) HTML(ctx context.Context, pageURL, waitSelector string, settle time.Duration) (string, error) {
	b.mu.Lock()
	browser := b.browser
	b.mu.Unlock()
	if browser == nil {
		return "", domain.ErrBrowserUnavailable
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return "", fmt.Errorf("browser: open tab: %w", err)
	}
	defer page.Close()

	if err := page.Context(ctx).Navigate(pageURL); err != nil {
		return "", fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		return "", fmt.Errorf("browser: wait load: %w", err)
	}

	if waitSelector != "" {
		if err := waitForSelector(ctx, page, waitSelector); err != nil {
			// The page structure may load without the dynamic data; scrape
			// whatever rendered rather than failing the whole search.
			log.Printf("[BROWSER] timeout waiting for %q on %s, continuing", waitSelector, pageURL)
		}
	}
	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-ctx.Done():
		}
	}

	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: extract html: %w", err)
	}
	return res.Value.Str(), nil
}

// waitForSelector polls until the selector matches at least one element or
// the context is done.
func waitForSelector(ctx context.Context, page *rod.Page, selector string) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		has, _, err := page.Context(ctx).Has(selector)
		if err == nil && has {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
