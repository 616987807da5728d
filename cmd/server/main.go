package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ncplot7go/ncengine/internal/config"
	"github.com/ncplot7go/ncengine/internal/httpapi"
	"github.com/ncplot7go/ncengine/internal/logging"
	"github.com/ncplot7go/ncengine/internal/storage"
	"github.com/ncplot7go/ncengine/pkg/engine"
)

func main() {
	var (
		port    = flag.String("port", "", "Server port (overrides config)")
		apiKeys = flag.String("api-keys", "", "Comma-separated API keys for authentication")
		verbose = flag.Bool("verbose", false, "Enable debug-level console logging")
	)
	flag.Parse()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}
	if *apiKeys != "" {
		cfg.APIKeys = strings.Split(*apiKeys, ",")
	}

	logger := logging.NewConsoleObserver(logging.ConsoleConfig{Verbose: *verbose})
	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zl.Info().Str("port", cfg.Port).Float64("max_segment_mm", cfg.MaxSegment).
		Int("api_keys", len(cfg.APIKeys)).Msg("starting ncengine server")

	eng := engine.NewWithOptions(engine.Options{MaxSegment: cfg.MaxSegment})
	eng.Observe(logger)

	eventHub := httpapi.NewHub(zl)
	eng.Observe(eventHub)

	var runStore storage.Store
	if cfg.DatabaseDSN != "" {
		bunStore := storage.NewBunStore(cfg.DatabaseDSN)
		if err := bunStore.InitSchema(context.Background()); err != nil {
			zl.Error().Err(err).Msg("failed to initialize run-history schema")
			os.Exit(1)
		}
		zl.Info().Msg("run history persisted to postgres")
		runStore = bunStore
	} else {
		zl.Info().Msg("run history held in-process (no database-dsn configured)")
		runStore = storage.NewMemoryStore()
	}

	srv := httpapi.NewServer(eng, httpapi.Config{
		Logger:   zl,
		APIKeys:  cfg.APIKeys,
		EventHub: eventHub,
		Store:    runStore,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info().Str("address", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zl.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	zl.Info().Msg("server exited gracefully")
}
