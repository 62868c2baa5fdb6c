// Package config defines the scanner configuration and validation
// helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration. Fields are populated from a TOML file
// and then optionally overridden by ARBSCOPE_* environment variables.
type Config struct {
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	PredictIt  PredictItConfig  `toml:"predictit"`
	Cache      CacheConfig      `toml:"cache"`
	Redis      RedisConfig      `toml:"redis"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Journal    JournalConfig    `toml:"journal"`
	Archive    ArchiveConfig    `toml:"archive"`
	Notify     NotifyConfig     `toml:"notify"`
	Watch      WatchConfig      `toml:"watch"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// KalshiConfig holds the Kalshi public API endpoint.
type KalshiConfig struct {
	Enabled bool     `toml:"enabled"`
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// PolymarketConfig holds the Polymarket Gamma API and CLOB WebSocket
// endpoints.
type PolymarketConfig struct {
	Enabled  bool     `toml:"enabled"`
	GammaURL string   `toml:"gamma_url"`
	WSURL    string   `toml:"ws_url"`
	Timeout  duration `toml:"timeout"`
}

// PredictItConfig holds the PredictIt public API endpoint.
type PredictItConfig struct {
	Enabled bool     `toml:"enabled"`
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// CacheConfig tunes the quote cache. Backend is "memory" or "redis".
type CacheConfig struct {
	Backend string   `toml:"backend"`
	TTL     duration `toml:"ttl"`
}

// RedisConfig holds Redis connection parameters for the redis cache
// backend.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ArbitrageConfig tunes detection thresholds.
type ArbitrageConfig struct {
	MinSpread       float64  `toml:"min_spread"`
	SimilarityFloor float64  `toml:"similarity_floor"`
	Validity        duration `toml:"validity"`
}

// JournalConfig holds PostgreSQL parameters for the opportunity journal.
// An empty DSN with an empty Host disables journaling.
type JournalConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// ArchiveConfig holds S3-compatible storage parameters for scan archives.
type ArchiveConfig struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds alert channel credentials. Channels with empty
// credentials are skipped.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// WatchConfig tunes the continuous scanning loop.
type WatchConfig struct {
	Interval duration `toml:"interval"`
	Query    string   `toml:"query"`
	Stake    float64  `toml:"stake"`
}

// duration wraps time.Duration so the TOML decoder can parse strings like
// "30s" or "5m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config with sensible defaults: all three platforms
// enabled against their public endpoints, process-local caching, and no
// optional backends.
func Defaults() Config {
	return Config{
		Kalshi: KalshiConfig{
			Enabled: true,
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
			Timeout: duration{4 * time.Second},
		},
		Polymarket: PolymarketConfig{
			Enabled:  true,
			GammaURL: "https://gamma-api.polymarket.com",
			WSURL:    "wss://ws-subscriptions-clob.polymarket.com/ws/market",
			Timeout:  duration{5 * time.Second},
		},
		PredictIt: PredictItConfig{
			Enabled: true,
			BaseURL: "https://www.predictit.org/api/marketdata",
			Timeout: duration{5 * time.Second},
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     duration{30 * time.Second},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Arbitrage: ArbitrageConfig{
			MinSpread:       0.03,
			SimilarityFloor: 0.35,
			Validity:        duration{time.Hour},
		},
		Journal: JournalConfig{
			Port:          5432,
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  0,
			RunMigrations: true,
		},
		Archive: ArchiveConfig{
			Region: "us-east-1",
		},
		Notify: NotifyConfig{
			Events: []string{"arb_detected"},
		},
		Watch: WatchConfig{
			Interval: duration{time.Minute},
			Stake:    100,
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":   true,
	"watch":  true,
	"health": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks for invalid or missing values and returns one combined
// error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, watch, health)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if !c.Kalshi.Enabled && !c.Polymarket.Enabled && !c.PredictIt.Enabled {
		errs = append(errs, "at least one platform must be enabled")
	}
	if c.Kalshi.Enabled && c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if c.Polymarket.Enabled && c.Polymarket.GammaURL == "" {
		errs = append(errs, "polymarket: gamma_url must not be empty")
	}
	if c.PredictIt.Enabled && c.PredictIt.BaseURL == "" {
		errs = append(errs, "predictit: base_url must not be empty")
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: memory, redis)", c.Cache.Backend))
	}
	if c.Cache.TTL.Duration <= 0 {
		errs = append(errs, "cache: ttl must be positive")
	}
	if c.Cache.Backend == "redis" {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Arbitrage.MinSpread <= 0 || c.Arbitrage.MinSpread >= 1 {
		errs = append(errs, fmt.Sprintf("arbitrage: min_spread must be in (0, 1), got %g", c.Arbitrage.MinSpread))
	}
	if c.Arbitrage.SimilarityFloor <= 0 || c.Arbitrage.SimilarityFloor > 1 {
		errs = append(errs, fmt.Sprintf("arbitrage: similarity_floor must be in (0, 1], got %g", c.Arbitrage.SimilarityFloor))
	}
	if c.Arbitrage.Validity.Duration <= 0 {
		errs = append(errs, "arbitrage: validity must be positive")
	}

	if c.Journal.Enabled {
		if strings.TrimSpace(c.Journal.DSN) == "" {
			if c.Journal.Host == "" {
				errs = append(errs, "journal: host must not be empty (or set journal.dsn)")
			}
			if c.Journal.Port <= 0 || c.Journal.Port > 65535 {
				errs = append(errs, fmt.Sprintf("journal: port must be 1-65535, got %d", c.Journal.Port))
			}
			if c.Journal.Database == "" {
				errs = append(errs, "journal: database must not be empty")
			}
		}
		if c.Journal.PoolMaxConns < 1 {
			errs = append(errs, "journal: pool_max_conns must be >= 1")
		}
		if c.Journal.PoolMinConns < 0 || c.Journal.PoolMinConns > c.Journal.PoolMaxConns {
			errs = append(errs, "journal: pool_min_conns must be between 0 and pool_max_conns")
		}
	}

	if c.Archive.Enabled {
		if c.Archive.Bucket == "" {
			errs = append(errs, "archive: bucket must not be empty")
		}
		if c.Archive.Region == "" {
			errs = append(errs, "archive: region must not be empty")
		}
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if c.Mode == "watch" {
		if c.Watch.Interval.Duration <= 0 {
			errs = append(errs, "watch: interval must be positive")
		}
		if c.Watch.Stake <= 0 {
			errs = append(errs, "watch: stake must be > 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
