package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ndewijer/stock-tracker/internal/api"
	"github.com/ndewijer/stock-tracker/internal/cache"
	"github.com/ndewijer/stock-tracker/internal/config"
	"github.com/ndewijer/stock-tracker/internal/database"
	"github.com/ndewijer/stock-tracker/internal/market"
	"github.com/ndewijer/stock-tracker/internal/pushover"
	"github.com/ndewijer/stock-tracker/internal/repository"
	"github.com/ndewijer/stock-tracker/internal/schedule"
	"github.com/ndewijer/stock-tracker/internal/secure"
	"github.com/ndewijer/stock-tracker/internal/service"
	"github.com/ndewijer/stock-tracker/internal/version"
	"github.com/ndewijer/stock-tracker/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))

	if err := ensureSecrets(cfg); err != nil {
		slog.Error("Failed to generate development secrets", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("Failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("Connected to database", slog.String("path", cfg.Database.Path))

	box, err := secure.NewBox(cfg.Security.SecretKey)
	if err != nil {
		slog.Error("Failed to initialise encryption", slog.Any("error", err))
		os.Exit(1)
	}

	// Upstreams
	yahooClient := yahoo.New(cfg.Yahoo)

	var quoteOpts []market.QuoteOption
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("Quote cache disabled", slog.Any("error", err))
		} else {
			defer rdb.Close()
			quoteOpts = append(quoteOpts, market.WithQuoteCache(cache.NewRedisQuoteCache(rdb, cfg.Redis.QuoteTTL)))
		}
	}

	quotes := market.NewQuoteFetcher(yahooClient, cfg.Market.QuoteWorkers, quoteOpts...)
	news := market.NewNewsFetcher(yahooClient, cfg.Market.NewsWorkers)

	if cfg.Pushover.AppToken == "" {
		slog.Warn("PUSHOVER_APP_TOKEN is not set, notifications will fail")
	}
	sender := pushover.New(cfg.Pushover)

	// Create repositories
	ledgerRepo := repository.NewLedgerRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Create services
	locks := service.NewUserLocks()
	marketLoc := schedule.LoadLocation(cfg.Scheduler.Timezone)

	portfolioService := service.NewPortfolioService(ledgerRepo, quotes, news)
	notificationService := service.NewNotificationService(userRepo, portfolioService, sender, box, marketLoc)

	router := api.NewRouter(api.Services{
		System:        service.NewSystemService(db),
		Users:         service.NewUserService(userRepo, box, locks, cfg.Security.SessionTTL),
		Portfolio:     portfolioService,
		Trades:        service.NewTradeService(ledgerRepo, yahooClient, locks),
		Exports:       service.NewExportService(ledgerRepo),
		Notifications: notificationService,
		Now:           time.Now,
	}, cfg)

	var runner *schedule.Runner
	if cfg.Scheduler.Enabled {
		runner, err = schedule.NewRunner(cfg.Scheduler.Spec, marketLoc, notificationService.Job())
		if err != nil {
			slog.Error("Failed to create scheduler", slog.Any("error", err))
			os.Exit(1)
		}
		runner.Start()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", slog.String("addr", cfg.Server.Addr), slog.String("version", version.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if runner != nil {
		runner.Stop(shutdownCtx)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	slog.Info("Server exited")
}

// ensureSecrets fills missing secrets with ephemeral ones. config.Load only
// lets them be empty in debug mode.
func ensureSecrets(cfg *config.Config) error {
	if cfg.Security.SecretKey == "" {
		key, err := secure.GenerateKey()
		if err != nil {
			return err
		}
		cfg.Security.SecretKey = key
		slog.Warn("SECRET_KEY not set, using an ephemeral key; sessions and stored keys will not survive a restart")
	}

	if cfg.Security.CronSecret == "" {
		secret, err := secure.GenerateKey()
		if err != nil {
			return err
		}
		cfg.Security.CronSecret = secret
		slog.Warn("CRON_SECRET not set, using an ephemeral secret", slog.String("secret", secret))
	}

	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
