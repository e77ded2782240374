// zuvid is the challenge service daemon: it issues one-time login messages,
// verifies wallet signatures, and manages session tokens.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/silentoaq/zuvi-auth/adapters/authstore"
	"github.com/silentoaq/zuvi-auth/adapters/events"
	"github.com/silentoaq/zuvi-auth/adapters/resolver"
	"github.com/silentoaq/zuvi-auth/adapters/tokenizer"
	"github.com/silentoaq/zuvi-auth/config"
	"github.com/silentoaq/zuvi-auth/ports"
	"github.com/silentoaq/zuvi-auth/service"
	transport "github.com/silentoaq/zuvi-auth/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "zuvid.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	var (
		challenges ports.ChallengeStore
		revocation ports.RevocationStore
		publisher  ports.EventPublisher
	)

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parsing redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		store := authstore.NewRedisStore(client)
		challenges = store
		revocation = store

		if cfg.Events.Enabled {
			pub, err := redisstream.NewPublisher(
				redisstream.PublisherConfig{Client: client},
				watermill.NewSlogLogger(logger),
			)
			if err != nil {
				return fmt.Errorf("creating event publisher: %w", err)
			}
			publisher = events.NewWatermillPublisher(pub)
		}
	} else {
		logger.Warn("no redis configured, using in-memory stores")
		store := authstore.NewMemoryStore()
		challenges = store
		revocation = store
	}

	tok := tokenizer.NewJWTTokenizerTTL([]byte(cfg.Auth.JWTSecret), cfg.Auth.SessionTTL)
	creds := resolver.NewCache(resolver.NewStatic(), resolver.DefaultCacheTTL)

	authService := service.NewAuthService(
		tok,
		challenges,
		revocation,
		creds,
		publisher,
		cfg.Auth.Arbitrators,
		logger,
		service.WithChallengeTTL(cfg.Auth.ChallengeTTL),
	)

	router := transport.SetupRouter(authService)

	logger.Info("starting zuvid", "addr", cfg.Server.Addr)
	if err := router.Run(cfg.Server.Addr); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
