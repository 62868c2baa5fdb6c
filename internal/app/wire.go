package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kestrelhq/arbscope/internal/aggregate"
	"github.com/kestrelhq/arbscope/internal/arb"
	s3blob "github.com/kestrelhq/arbscope/internal/blob/s3"
	"github.com/kestrelhq/arbscope/internal/cache"
	"github.com/kestrelhq/arbscope/internal/cache/redis"
	"github.com/kestrelhq/arbscope/internal/config"
	"github.com/kestrelhq/arbscope/internal/domain"
	"github.com/kestrelhq/arbscope/internal/notify"
	"github.com/kestrelhq/arbscope/internal/platform/kalshi"
	"github.com/kestrelhq/arbscope/internal/platform/polymarket"
	"github.com/kestrelhq/arbscope/internal/platform/predictit"
	"github.com/kestrelhq/arbscope/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
// Journal and Archiver are nil when their backends are disabled.
type Dependencies struct {
	Aggregator *aggregate.Aggregator
	Detector   *arb.Detector
	Notifier   *notify.Notifier
	Journal    *postgres.OpportunityStore
	Archiver   *s3blob.ScanArchiver
}

// Wire constructs all concrete dependencies from the configuration and
// returns them with a cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// Quote cache: process-local by default, Redis when scanners share
	// quotes across processes.
	var quotes domain.QuoteCache
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		quotes = redis.NewQuoteCache(redisClient, cfg.Cache.TTL.Duration)
	default:
		quotes = cache.NewMemory(cfg.Cache.TTL.Duration)
	}

	// Providers share one HTTP client; per-call deadlines come from each
	// adapter's timeout.
	httpClient := &http.Client{}

	var providers []domain.Provider
	if cfg.Kalshi.Enabled {
		client := kalshi.NewClient(cfg.Kalshi.BaseURL, httpClient)
		providers = append(providers, kalshi.NewAdapter(client, quotes, cfg.Kalshi.Timeout.Duration, logger))
	}
	if cfg.Polymarket.Enabled {
		client := polymarket.NewGammaClient(cfg.Polymarket.GammaURL, httpClient)
		providers = append(providers, polymarket.NewAdapter(client, quotes, cfg.Polymarket.Timeout.Duration, logger))
	}
	if cfg.PredictIt.Enabled {
		client := predictit.NewClient(cfg.PredictIt.BaseURL, httpClient)
		providers = append(providers, predictit.NewAdapter(client, quotes, cfg.PredictIt.Timeout.Duration, logger))
	}

	deps.Aggregator = aggregate.New(providers, cfg.Arbitrage.MinSpread, logger)
	deps.Detector = arb.NewDetector(deps.Aggregator, arb.Config{
		MinSpread: cfg.Arbitrage.MinSpread,
		Validity:  cfg.Arbitrage.Validity.Duration,
		ScanFloor: cfg.Arbitrage.SimilarityFloor,
	}, logger)

	if cfg.Journal.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Journal.DSN,
			Host:     cfg.Journal.Host,
			Port:     cfg.Journal.Port,
			Database: cfg.Journal.Database,
			User:     cfg.Journal.User,
			Password: cfg.Journal.Password,
			SSLMode:  cfg.Journal.SSLMode,
			MaxConns: cfg.Journal.PoolMaxConns,
			MinConns: cfg.Journal.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Journal.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Journal = postgres.NewOpportunityStore(pgClient.Pool())
	}

	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.Archive.Endpoint,
			Region:         cfg.Archive.Region,
			Bucket:         cfg.Archive.Bucket,
			AccessKey:      cfg.Archive.AccessKey,
			SecretKey:      cfg.Archive.SecretKey,
			UseSSL:         cfg.Archive.UseSSL,
			ForcePathStyle: cfg.Archive.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewScanArchiver(s3blob.NewWriter(s3Client), logger)
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
