package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ChartCast/pkg/logger"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		BodyLimit       string        `yaml:"body_limit" default:"8M"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log     logger.Config `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Market struct {
		BaseURL       string        `yaml:"base_url" default:"https://api.binance.com"`
		FallbackURL   string        `yaml:"fallback_url" default:"https://api.binance.us"`
		Timeout       time.Duration `yaml:"timeout" default:"3s"`
		Limit         int           `yaml:"limit" default:"200" validate:"gt=0,lte=1000"`
		CacheTTL      time.Duration `yaml:"cache_ttl" default:"15s"`
		WatchPairs    []string      `yaml:"watch_pairs"`
		WatchInterval string        `yaml:"watch_interval" default:"1h" validate:"oneof=1m 5m 15m 30m 1h 4h 1d"`
		SnapshotCron  string        `yaml:"snapshot_cron" default:"0 * * * *"`
		Stream        struct {
			Enabled        bool          `yaml:"enabled"`
			URL            string        `yaml:"url" default:"wss://stream.binance.com:9443"`
			ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
			PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
			MinGap         time.Duration `yaml:"min_gap" default:"2s"`
		} `yaml:"stream"`
	} `yaml:"market"`
	AI struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url" default:"https://api.openai.com/v1"`
		Model   string        `yaml:"model" default:"gpt-4o-mini"`
		Timeout time.Duration `yaml:"timeout" default:"20s"`
	} `yaml:"ai"`
	Neynar struct {
		APIKey     string        `yaml:"api_key"`
		SignerUUID string        `yaml:"signer_uuid"`
		BaseURL    string        `yaml:"base_url" default:"https://api.neynar.com"`
		Timeout    time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"neynar"`
	Blob struct {
		Token   string        `yaml:"token"`
		BaseURL string        `yaml:"base_url" default:"https://blob.vercel-storage.com"`
		Timeout time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"blob"`
	App struct {
		URL string `yaml:"url" default:"http://localhost:8080" validate:"required,url"`
	} `yaml:"app"`
	RateLimit struct {
		Burst        int     `yaml:"burst" default:"5"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"0.2"`
	} `yaml:"rate_limit"`
	History struct {
		Backend string `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		Key     string `yaml:"key" default:"chartcast:history"`
	} `yaml:"history"`
	Cache struct {
		MemoryMaxSize int           `yaml:"memory_max_size" default:"1000"`
		MemoryTTL     time.Duration `yaml:"memory_ttl" default:"15s"`
	} `yaml:"cache"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"chartcast"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled     bool     `yaml:"enabled"`
		Brokers     []string `yaml:"brokers"`
		Compression string   `yaml:"compression" default:"snappy" validate:"oneof=gzip snappy lz4 zstd"`
		Topics      struct {
			Casts     string `yaml:"casts" default:"chartcast.cast.published"`
			Analysis  string `yaml:"analysis" default:"chartcast.analysis.updated"`
			LogDigest string `yaml:"log_digest" default:"chartcast.log.digest"`
			DLQ       string `yaml:"dlq" default:"chartcast.dlq"`
		} `yaml:"topics"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"chartcast-archiver"`
			Workers    int           `yaml:"workers" default:"2"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		} `yaml:"consumer"`
		LogDigest struct {
			Enabled  bool          `yaml:"enabled"`
			Interval time.Duration `yaml:"interval" default:"30s"`
		} `yaml:"log_digest"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"default"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert" default:"true"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file. Missing keys take their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Secrets normally arrive this way.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment; getenv is os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	set("OPENAI_API_KEY", &c.AI.APIKey)
	set("NEYNAR_API_KEY", &c.Neynar.APIKey)
	set("NEYNAR_SIGNER_UUID", &c.Neynar.SignerUUID)
	set("BLOB_READ_WRITE_TOKEN", &c.Blob.Token)
	set("APP_URL", &c.App.URL)
	set("HISTORY_BACKEND", &c.History.Backend)
	set("LOG_LEVEL", &c.Log.Level)

	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("WATCH_PAIRS"); v != "" {
		c.Market.WatchPairs = splitList(v)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.History.Backend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("history.backend is redis but redis is disabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Market.Stream.Enabled && len(c.Market.WatchPairs) == 0 {
		return fmt.Errorf("market.watch_pairs cannot be empty when the stream is enabled")
	}
	for _, p := range c.Market.WatchPairs {
		if p != strings.ToUpper(p) {
			return fmt.Errorf("market.watch_pairs: %q must be upper case", p)
		}
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
