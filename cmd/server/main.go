package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/alerts"
	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/config"
	"github.com/sudo-init-do/tgwork/internal/events"
	"github.com/sudo-init-do/tgwork/internal/logging"
	"github.com/sudo-init-do/tgwork/internal/server"
	"github.com/sudo-init-do/tgwork/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.Development() && os.Getenv("JWT_SECRET") == "" {
		logger.Warn("JWT_SECRET not set, signing tokens with the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store, logger.Named("store"))
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer st.Close()

	// Event sinks
	hub := events.NewHub(logger)
	bus := events.NewBus(logger, hub)

	if len(cfg.KafkaBrokers) > 0 {
		sink := events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer sink.Close()
		bus.Add(sink)
		logger.Info("kafka event log enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	tokens.ResetTTL = cfg.ResetTTL

	var resets auth.ResetMailer
	if cfg.RedisAddr != "" {
		if sender, err := alerts.NewSender(cfg.Mail); err != nil {
			logger.Warn("email alerts disabled", zap.Error(err))
		} else if worker, err := alerts.Start(cfg.RedisAddr, sender, logger.Named("alerts")); err != nil {
			logger.Warn("email alerts disabled", zap.Error(err))
		} else {
			defer worker.Close()
			notifier := alerts.NewNotifier(worker.Client, cfg.AppURL)
			bus.Add(notifier)
			resets = notifier
		}
	}

	e := server.New(server.Deps{
		Store:         st,
		Tokens:        tokens,
		Events:        bus,
		Hub:           hub,
		Log:           logger,
		AuthRateLimit: cfg.AuthRateLimit,
		Resets:        resets,
		AppURL:        cfg.AppURL,
	})

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	// drain queued events before the sinks close
	bus.Close()
}
