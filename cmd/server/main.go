package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ofertas-ar/backend/config"
	httpDelivery "github.com/ofertas-ar/backend/internal/delivery/http"
	"github.com/ofertas-ar/backend/internal/infrastructure/cache"
	"github.com/ofertas-ar/backend/internal/infrastructure/history"
	"github.com/ofertas-ar/backend/internal/infrastructure/scraper"
	"github.com/ofertas-ar/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Ofertas Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// The browser is an explicitly owned resource: started here, handed to
	// the scraper that needs it, closed on shutdown.
	var browser *scraper.Browser
	if cfg.Scraper.BrowserEnabled {
		browser = scraper.NewBrowser(scraper.BrowserConfig{UserAgent: cfg.Scraper.UserAgent})
		if err := browser.Start(); err != nil {
			log.Printf("WARNING: browser unavailable, dynamic pages will use http fallback: %v", err)
			browser = nil
		}
	} else {
		log.Printf("Browser automation disabled, dynamic pages will use http fallback")
	}

	// Initialize infrastructure dependencies
	resultCache := cache.NewMemoryCache()
	feed := scraper.NewService(
		scraper.NewPreciosGamer(browser, cfg.Scraper.UserAgent),
		scraper.NewHardGamers(cfg.Scraper.UserAgent),
		resultCache,
		scraper.ServiceConfig{
			CacheTTL: cfg.Scraper.CacheTTL,
			Timeout:  cfg.Scraper.Timeout,
		},
	)

	store := history.NewStore(history.Options{
		Backend: cfg.History.Backend,
		File:    cfg.History.File,
		Token:   cfg.History.GitHub.Token,
		Repo:    cfg.History.GitHub.Repo,
		Path:    cfg.History.GitHub.Path,
		Branch:  cfg.History.GitHub.Branch,
	})
	log.Printf("History backend: %s (max_products=%d, max_points=%d)",
		store.Name(), cfg.History.MaxProducts, cfg.History.MaxPoints)

	// Initialize usecase layer
	historyService := usecase.NewHistoryService(store, usecase.HistoryServiceConfig{
		MaxProducts: cfg.History.MaxProducts,
		MaxPoints:   cfg.History.MaxPoints,
	})

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(feed, historyService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Shut down cleanly on SIGINT/SIGTERM: stop accepting requests first,
	// then close the browser.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if browser != nil {
		if err := browser.Close(); err != nil {
			log.Printf("Browser close: %v", err)
		}
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
