package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sjsage522/cardmonitor/config"
	"sjsage522/cardmonitor/helpers"
	"sjsage522/cardmonitor/internal/deal"
	"sjsage522/cardmonitor/internal/scraper"
	"sjsage522/cardmonitor/logger"
	"sjsage522/cardmonitor/services/cache"
	"sjsage522/cardmonitor/services/notifier"
	"sjsage522/cardmonitor/services/publisher"
	"sjsage522/cardmonitor/services/server"
	"sjsage522/cardmonitor/services/store"
	"sjsage522/cardmonitor/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	watchlist, err := config.LoadWatchlist(cfg.WatchlistFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.WatchlistFile).Msg("Failed to load watchlist")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("schedule", cfg.ScanSchedule).
		Int("watch_entries", len(watchlist)).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	w := worker.NewWorker(
		watchlist,
		services.Searcher,
		deal.NewPipeline(deal.NewClassifier(cfg.AuctionPolicy())),
		services.Store,
		services.Publisher,
		services.Notifiers,
		helpers.NewLogger(cfg.ErrorLogFile),
		worker.Options{
			ListingFormats: cfg.ListingFormats,
			DelayMin:       cfg.ScanDelayMin,
			DelayMax:       cfg.ScanDelayMax,
			PublicURL:      services.PublicURL,
		},
	)

	if cfg.RunOnce {
		summary := w.RunScan(ctx)
		log.Info().
			Str("scan_id", summary.ScanID).
			Int("new_deals", summary.NewDeals).
			Msg("Single scan finished")
		return
	}

	// Start clear server in a goroutine
	serverDone := make(chan error, 1)
	if services.Server != nil {
		go func() {
			serverDone <- services.Server.Start()
		}()
	}

	scheduler := worker.NewScheduler(w, cfg.ScanSchedule, helpers.NewLogger(cfg.ErrorLogFile))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil {
			log.Error().Err(err).Msg("Clear server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	cancel()
	scheduler.Stop()

	if services.Server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := services.Server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Clear server shutdown failed")
		}
	}
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Searcher  scraper.Searcher
	Store     *store.Store
	Publisher publisher.Publisher
	Notifiers []notifier.Notifier
	Server    *server.Server
	PublicURL string

	closers []func() error
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.LogError("main", err, "cleanup failed")
		}
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Seen store
	var backend store.Backend
	switch cfg.StoreBackend {
	case config.StoreBackendSQLite:
		sqliteBackend, err := store.NewSQLiteBackend(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		services.closers = append(services.closers, sqliteBackend.Close)
		backend = sqliteBackend
	default:
		backend = store.NewFileBackend(cfg.StorePath)
	}
	services.Store = store.New(backend)
	if err := services.Store.Load(); err != nil {
		logger.ForStore().Warn().Err(err).Str("path", cfg.StorePath).Msg("Starting with empty seen store")
	}
	logger.Info("Loaded %d seen listings from %s (%s)", services.Store.Len(), cfg.StorePath, cfg.StoreBackend)

	// Rate-limit cache
	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheService.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Msg("Memcache unreachable, using in-memory cache")
			services.Cache = cache.NewMemoryCache()
		} else {
			services.Cache = memcacheService
			logger.LogInfo("cache", "Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	} else {
		services.Cache = cache.NewMemoryCache()
	}

	// Fetcher and scraper
	var fetcher scraper.Fetcher
	switch cfg.ScrapeMode {
	case config.ScrapeModeHTTP:
		fetcher = scraper.NewHTTPFetcher()
	default:
		chromeFetcher := scraper.NewChromeFetcher(cfg.ChromeAddr, scraper.DefaultSelectors().Results)
		services.closers = append(services.closers, func() error {
			chromeFetcher.Close()
			return nil
		})
		fetcher = chromeFetcher
	}
	services.Searcher = scraper.NewEbayScraper(cfg.SearchBaseURL, fetcher, services.Cache, cfg.RateLimitBlock)

	// Publisher
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			redisPublisher.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		services.Publisher = redisPublisher
		services.closers = append(services.closers, redisPublisher.Close)

		logger.ForPublisher().Info().
			Str("addr", cfg.RedisAddr).
			Int("db", cfg.RedisDB).
			Str("stream", cfg.RedisStream).
			Msg("Connected to Redis")
	}

	// Notifiers
	services.Notifiers = append(services.Notifiers, notifier.NewLogNotifier())

	if cfg.EmailEnabled {
		services.Notifiers = append(services.Notifiers, notifier.NewEmailNotifier(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUsername,
			cfg.SMTPPassword,
			cfg.EmailFrom,
			cfg.EmailRecipient,
		))
		logger.ForNotifier("email").Info().
			Str("smtp", cfg.SMTPHost).
			Str("password", cfg.MaskedSMTPPassword()).
			Str("recipient", cfg.EmailRecipient).
			Msg("Email alerts enabled")
	}

	if cfg.TelegramToken != "" {
		bot, err := notifier.NewTelegramBot(cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to telegram with token %s: %w", cfg.MaskedTelegramToken(), err)
		}
		services.Notifiers = append(services.Notifiers, notifier.NewTelegramNotifier(bot, cfg.TelegramChatID))
		logger.ForNotifier("telegram").Info().
			Str("bot", bot.Self.UserName).
			Int64("chat_id", cfg.TelegramChatID).
			Msg("Telegram alerts enabled")
	}

	// Clear server
	if cfg.ServerEnabled {
		// A one-shot run still links to a separately running server
		services.PublicURL = cfg.PublicURL
		if !cfg.RunOnce {
			services.Server = server.New(cfg.ServerAddr, services.Store)
		}
	}

	return services, nil
}
