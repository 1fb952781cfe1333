package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/mesaviva/pos-payments-terminal/internal/cache"
	"github.com/mesaviva/pos-payments-terminal/internal/clients"
	"github.com/mesaviva/pos-payments-terminal/internal/config"
	"github.com/mesaviva/pos-payments-terminal/internal/events"
	"github.com/mesaviva/pos-payments-terminal/internal/handlers"
	"github.com/mesaviva/pos-payments-terminal/internal/server"
	"github.com/mesaviva/pos-payments-terminal/internal/terminal"
)

func main() {
	cfg := config.Load()

	logger := newLogger()
	slog.SetDefault(logger)

	logger.Info("starting payments-terminal", "port", cfg.Server.Port)

	posClient := clients.NewHTTPPosClient(cfg.PosAPI, logger)

	var configCache cache.ConfigCache
	if cfg.Features.EnableConfigCache {
		configCache = cache.NewRedisConfigCache(cfg.Redis, logger)
	} else {
		configCache = cache.NewMemoryConfigCache()
	}

	resolver := terminal.NewConfigResolver(posClient, configCache, logger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	resolver.Refresh(startupCtx)
	cancelStartup()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Features.EnablePaymentEvents {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	terminalService := terminal.NewService(posClient, resolver, publisher, logger)

	h := handlers.NewHandlers(terminalService, resolver, cfg, logger)

	srv := server.New(h, cfg)

	go func() {
		logger.Info("server listening",
			"port", cfg.Server.Port,
			"static_dir", cfg.Static.Dir,
			"payment_events", cfg.Features.EnablePaymentEvents,
		)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Other terminals broadcast configuration changes through the cache.
	subscribeCtx, cancelSubscribe := context.WithCancel(context.Background())
	go configCache.Subscribe(subscribeCtx, resolver.ApplyExternal)

	// The back office announces configuration changes over Kafka as well.
	configConsumer := events.NewKafkaConfigConsumer(cfg.Kafka, resolver, logger)
	go func() {
		if err := configConsumer.Start(context.Background()); err != nil {
			logger.Error("configuration consumer failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cancelSubscribe()
	configConsumer.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	logger.Info("server exited")
}

func newLogger() *slog.Logger {
	if os.Getenv("LOG_FORMAT") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		TimeFormat: time.Kitchen,
	}))
}
