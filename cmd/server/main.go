package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/maltedev/price-tracker/internal/api"
	"github.com/maltedev/price-tracker/internal/config"
	"github.com/maltedev/price-tracker/internal/database"
	"github.com/maltedev/price-tracker/internal/fetcher"
	"github.com/maltedev/price-tracker/internal/notify"
	"github.com/maltedev/price-tracker/internal/tracker"
	"github.com/maltedev/price-tracker/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).With("component", "server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	relay := database.NewRelay(db, redisClient, log, database.RelayConfig{})
	go func() {
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("relay stopped", "error", err)
		}
	}()

	products, err := config.LoadProducts(cfg.Tracker.ProductsFile)
	if err != nil {
		log.Warn("no product config loaded, track endpoint disabled", "file", cfg.Tracker.ProductsFile, "error", err)
	}

	policy := fetcher.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Tracker.MaxRetries
	httpFetcher, err := fetcher.New(fetcher.Config{
		Timeout:    cfg.Tracker.RequestTimeout,
		Policy:     policy,
		UserAgents: cfg.Tracker.UserAgents,
		Logger:     log,
	})
	if err != nil {
		log.Error("failed to create fetcher", "error", err)
		os.Exit(1)
	}
	defer httpFetcher.Close()

	store := database.NewPriceStore(db, log)
	notifier := notify.NewOutboxNotifier(db, cfg.Redis.AlertStream, log)
	tr := tracker.New(httpFetcher, store, notifier, tracker.Thresholds{
		DropPercent: decimal.NewFromFloat(cfg.Tracker.DropPercent),
		DropAmount:  decimal.NewFromFloat(cfg.Tracker.DropAmount),
	}, log)

	handlers := api.NewHandlers(store, tr, products, log)
	router := api.NewRouter(handlers, db)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info("shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		cancel()
	}()

	log.Info("starting API server", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	// Give the relay a moment to flush pending alerts before exit.
	time.Sleep(200 * time.Millisecond)
	log.Info("server stopped")
}
