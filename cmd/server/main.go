package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"parcel-tracking/internal/cache"
	"parcel-tracking/internal/config"
	"parcel-tracking/internal/database"
	"parcel-tracking/internal/handlers"
	"parcel-tracking/internal/parser"
	"parcel-tracking/internal/ratelimit"
	"parcel-tracking/internal/scraper"
	"parcel-tracking/internal/server"
	"parcel-tracking/internal/services"
	"parcel-tracking/internal/trackingmore"
)

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	// Persistence is optional; without a database path the cache lives in
	// memory only.
	var db *database.DB
	if cfg.DBPath != "" {
		db, err = database.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		log.Printf("Database initialized at %s", cfg.DBPath)
	} else {
		log.Printf("No database path configured, cache is in-memory only")
	}

	var store *database.TrackCacheStore
	if db != nil {
		store = db.TrackCache
	}

	// Cache warms from the database and writes through to it
	cacheManager := cache.NewManager(store, cfg.DisableCache)
	defer cacheManager.Close()

	// Headless browser retry is opt-in; it needs Chrome on the host
	var headless *scraper.HeadlessFetcher
	if cfg.HeadlessEnabled {
		headless = scraper.NewHeadlessFetcher(cfg.HeadlessTimeout)
		log.Printf("Headless browser retry enabled")
	}

	scr := scraper.New(cacheManager, scraper.Config{
		ScrapeTimeout: cfg.ScrapeTimeout,
		ProbeTimeout:  cfg.ProbeTimeout,
		Headless:      headless,
	})

	aggregator := trackingmore.NewClientWithBaseURL(cfg.TrackingMoreAPIKey, cfg.TrackingMoreAPIURL)
	if aggregator.IsConfigured() {
		log.Printf("TrackingMore fallback enabled")
	} else {
		log.Printf("TrackingMore fallback disabled (no API key)")
	}

	service := services.NewTrackingService(scr, aggregator, cacheManager, logger)
	limiter := ratelimit.NewRefreshLimiter(cfg.RefreshCooldown)

	h := &server.Handlers{
		Track:    handlers.NewTrackHandler(service, limiter, cfg, logger),
		Carriers: handlers.NewCarrierHandler(),
		Parse:    handlers.NewParseHandler(parser.NewExtractor()),
		Health:   handlers.NewHealthHandler(db),
		Admin:    handlers.NewAdminHandler(cacheManager, logger),
	}

	router := server.NewRouter(h, cfg.AdminAPIKey)

	srv := &http.Server{
		Addr:    cfg.Address(),
		Handler: router,

		// Write timeout must outlast a full probe fan-out plus a headless
		// retry, or slow lookups get cut off mid-response.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Handle server startup and graceful shutdown
	shutdownTimeout := 30 * time.Second
	if err := server.HandleSignals(srv, shutdownTimeout); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
