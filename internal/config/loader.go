package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML file at path, merges it on top of the built-in
// defaults, and applies ARBSCOPE_* environment overrides. An empty path
// skips the file and uses defaults plus overrides. The result has NOT
// been validated; callers invoke Validate after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Pick up a .env file when present.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides overwrites fields from well-known ARBSCOPE_* variables
// so operators can inject endpoints and secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setBool(&cfg.Kalshi.Enabled, "ARBSCOPE_KALSHI_ENABLED")
	setStr(&cfg.Kalshi.BaseURL, "ARBSCOPE_KALSHI_BASE_URL")
	setDuration(&cfg.Kalshi.Timeout, "ARBSCOPE_KALSHI_TIMEOUT")

	setBool(&cfg.Polymarket.Enabled, "ARBSCOPE_POLYMARKET_ENABLED")
	setStr(&cfg.Polymarket.GammaURL, "ARBSCOPE_POLYMARKET_GAMMA_URL")
	setStr(&cfg.Polymarket.WSURL, "ARBSCOPE_POLYMARKET_WS_URL")
	setDuration(&cfg.Polymarket.Timeout, "ARBSCOPE_POLYMARKET_TIMEOUT")

	setBool(&cfg.PredictIt.Enabled, "ARBSCOPE_PREDICTIT_ENABLED")
	setStr(&cfg.PredictIt.BaseURL, "ARBSCOPE_PREDICTIT_BASE_URL")
	setDuration(&cfg.PredictIt.Timeout, "ARBSCOPE_PREDICTIT_TIMEOUT")

	setStr(&cfg.Cache.Backend, "ARBSCOPE_CACHE_BACKEND")
	setDuration(&cfg.Cache.TTL, "ARBSCOPE_CACHE_TTL")

	setStr(&cfg.Redis.Addr, "ARBSCOPE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBSCOPE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBSCOPE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBSCOPE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBSCOPE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBSCOPE_REDIS_TLS_ENABLED")

	setFloat64(&cfg.Arbitrage.MinSpread, "ARBSCOPE_ARBITRAGE_MIN_SPREAD")
	setFloat64(&cfg.Arbitrage.SimilarityFloor, "ARBSCOPE_ARBITRAGE_SIMILARITY_FLOOR")
	setDuration(&cfg.Arbitrage.Validity, "ARBSCOPE_ARBITRAGE_VALIDITY")

	setBool(&cfg.Journal.Enabled, "ARBSCOPE_JOURNAL_ENABLED")
	setStr(&cfg.Journal.DSN, "ARBSCOPE_JOURNAL_DSN")
	setStr(&cfg.Journal.Host, "ARBSCOPE_JOURNAL_HOST")
	setInt(&cfg.Journal.Port, "ARBSCOPE_JOURNAL_PORT")
	setStr(&cfg.Journal.Database, "ARBSCOPE_JOURNAL_DATABASE")
	setStr(&cfg.Journal.User, "ARBSCOPE_JOURNAL_USER")
	setStr(&cfg.Journal.Password, "ARBSCOPE_JOURNAL_PASSWORD")
	setStr(&cfg.Journal.SSLMode, "ARBSCOPE_JOURNAL_SSL_MODE")
	setInt(&cfg.Journal.PoolMaxConns, "ARBSCOPE_JOURNAL_POOL_MAX_CONNS")
	setInt(&cfg.Journal.PoolMinConns, "ARBSCOPE_JOURNAL_POOL_MIN_CONNS")
	setBool(&cfg.Journal.RunMigrations, "ARBSCOPE_JOURNAL_RUN_MIGRATIONS")

	setBool(&cfg.Archive.Enabled, "ARBSCOPE_ARCHIVE_ENABLED")
	setStr(&cfg.Archive.Endpoint, "ARBSCOPE_ARCHIVE_ENDPOINT")
	setStr(&cfg.Archive.Region, "ARBSCOPE_ARCHIVE_REGION")
	setStr(&cfg.Archive.Bucket, "ARBSCOPE_ARCHIVE_BUCKET")
	setStr(&cfg.Archive.AccessKey, "ARBSCOPE_ARCHIVE_ACCESS_KEY")
	setStr(&cfg.Archive.SecretKey, "ARBSCOPE_ARCHIVE_SECRET_KEY")
	setBool(&cfg.Archive.UseSSL, "ARBSCOPE_ARCHIVE_USE_SSL")
	setBool(&cfg.Archive.ForcePathStyle, "ARBSCOPE_ARCHIVE_FORCE_PATH_STYLE")

	setStr(&cfg.Notify.TelegramToken, "ARBSCOPE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBSCOPE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBSCOPE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBSCOPE_NOTIFY_EVENTS")

	setDuration(&cfg.Watch.Interval, "ARBSCOPE_WATCH_INTERVAL")
	setStr(&cfg.Watch.Query, "ARBSCOPE_WATCH_QUERY")
	setFloat64(&cfg.Watch.Stake, "ARBSCOPE_WATCH_STAKE")

	setStr(&cfg.Mode, "ARBSCOPE_MODE")
	setStr(&cfg.LogLevel, "ARBSCOPE_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the variable is
// present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
