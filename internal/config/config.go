// Package config loads service configuration from config.yaml and the
// environment, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Apify  ApifyConfig  `yaml:"apify" mapstructure:"apify"`
	Actors ActorsConfig `yaml:"actors" mapstructure:"actors"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Limits LimitsConfig `yaml:"limits" mapstructure:"limits"`
	Sheets SheetsConfig `yaml:"sheets" mapstructure:"sheets"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ApifyConfig holds Apify API credentials and transport settings.
type ApifyConfig struct {
	Token          string  `yaml:"token" mapstructure:"token"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffMillis  int     `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	MaxBackoffSecs int     `yaml:"max_backoff_secs" mapstructure:"max_backoff_secs"`
	RatePerSec     float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`

	// BreakerThreshold consecutive transient failures of one actor open its
	// circuit for BreakerCooldownSecs. Zero disables the breaker.
	BreakerThreshold    int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// ActorConfig names one actor and how long the API should wait for it.
type ActorConfig struct {
	ID       string `yaml:"id" mapstructure:"id"`
	WaitSecs int    `yaml:"wait_secs" mapstructure:"wait_secs"`
}

// ActorsConfig maps each export domain to its actor.
type ActorsConfig struct {
	Hashtag ActorConfig `yaml:"hashtag" mapstructure:"hashtag"`
	Reels   ActorConfig `yaml:"reels" mapstructure:"reels"`
	Tagged  ActorConfig `yaml:"tagged" mapstructure:"tagged"`
	Profile ActorConfig `yaml:"profile" mapstructure:"profile"`
	Keyword ActorConfig `yaml:"keyword" mapstructure:"keyword"`
}

// FetchConfig configures the fan-out worker pool.
type FetchConfig struct {
	Workers         int `yaml:"workers" mapstructure:"workers"`
	TaskTimeoutSecs int `yaml:"task_timeout_secs" mapstructure:"task_timeout_secs"`
}

// LimitsConfig bounds batch sizes and per-call result counts.
type LimitsConfig struct {
	MaxBrandpages    int   `yaml:"max_brandpages" mapstructure:"max_brandpages"`
	MaxResults       int   `yaml:"max_results" mapstructure:"max_results"`
	HashtagDefault   int   `yaml:"hashtag_default" mapstructure:"hashtag_default"`
	BrandpageDefault int   `yaml:"brandpage_default" mapstructure:"brandpage_default"`
	KeywordDefault   int   `yaml:"keyword_default" mapstructure:"keyword_default"`
	MaxUploadBytes   int64 `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// SheetsConfig configures the optional spreadsheet sink.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	Range           string `yaml:"range" mapstructure:"range"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DISCOVERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("apify.token", "")
	v.SetDefault("apify.base_url", "https://api.apify.com")
	v.SetDefault("apify.timeout_secs", 600)
	v.SetDefault("apify.max_retries", 5)
	v.SetDefault("apify.backoff_ms", 2000)
	v.SetDefault("apify.max_backoff_secs", 30)
	v.SetDefault("apify.rate_per_sec", 2.0)
	v.SetDefault("apify.burst", 4)
	v.SetDefault("apify.breaker_threshold", 5)
	v.SetDefault("apify.breaker_cooldown_secs", 60)

	v.SetDefault("actors.hashtag.id", "apify~instagram-hashtag-scraper")
	v.SetDefault("actors.hashtag.wait_secs", 300)
	v.SetDefault("actors.reels.id", "apify~instagram-reel-scraper")
	v.SetDefault("actors.reels.wait_secs", 600)
	v.SetDefault("actors.tagged.id", "apify~instagram-tagged-scraper")
	v.SetDefault("actors.tagged.wait_secs", 600)
	v.SetDefault("actors.profile.id", "logical_scrapers~instagram-profile-scraper")
	v.SetDefault("actors.profile.wait_secs", 600)
	v.SetDefault("actors.keyword.id", "streamers~youtube-scraper")
	v.SetDefault("actors.keyword.wait_secs", 600)

	v.SetDefault("fetch.workers", 3)
	v.SetDefault("fetch.task_timeout_secs", 900)

	v.SetDefault("limits.max_brandpages", 10)
	v.SetDefault("limits.max_results", 1000)
	v.SetDefault("limits.hashtag_default", 20)
	v.SetDefault("limits.brandpage_default", 1000)
	v.SetDefault("limits.keyword_default", 1000)
	v.SetDefault("limits.max_upload_bytes", 32<<20)

	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.credentials_file", "service_account.json")
	v.SetDefault("sheets.range", "Sheet1!A1")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
