package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helioretail/concierge/internal/agent"
	"github.com/helioretail/concierge/internal/api"
	"github.com/helioretail/concierge/internal/config"
	"github.com/helioretail/concierge/internal/events"
	"github.com/helioretail/concierge/internal/llm"
	"github.com/helioretail/concierge/internal/search"
	"github.com/helioretail/concierge/internal/session"
	"github.com/helioretail/concierge/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("concierge starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.InitSchema(ctx); err != nil {
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	// Redis session cache
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	kv := session.NewRedisKV(redisClient)
	slog.Info("redis connected", "url", cfg.RedisURL)

	// NATS event publisher (optional, archive events only)
	var publisher session.EventPublisher
	if cfg.NatsURL != "" {
		pub, err := events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		publisher = pub
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, archive events disabled")
	}

	// LLM client
	if cfg.LLMAPIKey == "" {
		slog.Error("LLM_API_KEY is required")
		os.Exit(1)
	}
	completer := llm.NewClient(llm.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	})
	slog.Info("llm client ready", "model", cfg.LLMModel)

	// External comparison search
	if cfg.SerperAPIKey == "" {
		slog.Warn("SERPER_API_KEY not set, product comparisons will be unavailable")
	}
	comparer := search.NewClient(cfg.SerperAPIKey)

	// Session cache with sweep-on-write archiving
	ttl := time.Duration(cfg.SessionTTLMin) * time.Minute
	sweeper := session.NewSweeper(kv, db, publisher, ttl, slog.Default())
	cache := session.NewCache(kv, db, sweeper, ttl, slog.Default())

	router := agent.NewRouter(db, cache, completer, comparer, slog.Default())

	// Background sweep catches sessions that idle out while no writes arrive.
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.SweepEverySec) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := sweeper.Sweep(ctx); err != nil {
					slog.Warn("background sweep failed", "error", err)
				} else if n > 0 {
					slog.Info("background sweep archived sessions", "count", n)
				}
			}
		}
	}()

	// HTTP API
	srv := api.NewServer(cfg.Port, router, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("concierge ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("concierge stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
