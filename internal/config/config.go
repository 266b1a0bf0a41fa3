// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token          string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	WebhookBaseURL string `yaml:"webhook_base_url" envconfig:"WEBHOOK_URL"`
	WebhookPath    string `yaml:"webhook_path" envconfig:"WEBHOOK_PATH"`
	Port           int    `yaml:"port" envconfig:"PORT"`
}

type LogConfig struct {
	Level    string `yaml:"level" envconfig:"LOG_LEVEL"`       // trace|debug|info|warn|error
	Format   string `yaml:"format" envconfig:"LOG_FORMAT"`     // json|console
	Sampling bool   `yaml:"sampling" envconfig:"LOG_SAMPLING"` // enable sampling in prod
}

type AirtableConfig struct {
	APIKey         string        `yaml:"api_key" envconfig:"AIRTABLE_API_KEY"`
	BaseID         string        `yaml:"base_id" envconfig:"AIRTABLE_BASE_ID"`
	APIURL         string        `yaml:"api_url" envconfig:"AIRTABLE_API_URL"`
	DirectoryTable string        `yaml:"directory_table" envconfig:"AIRTABLE_DIRECTORY_TABLE"`
	MessageTable   string        `yaml:"message_table" envconfig:"AIRTABLE_MESSAGE_TABLE"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"AIRTABLE_TIMEOUT"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" envconfig:"REDIS_URL"`
	Password string        `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" envconfig:"REDIS_DB"`
	StateTTL time.Duration `yaml:"state_ttl"`
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute" envconfig:"RATE_LIMIT_PER_MINUTE"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Airtable  AirtableConfig  `yaml:"airtable"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the optional YAML file, then overlays environment
// variables so deployments without a config file (secrets come from the
// platform environment) keep working.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case os.IsNotExist(err):
			// env-only deployment
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	applyDefaults(&cfg)

	// Fail fast: without these credentials the process must not serve.
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot token is required (bot.token / TELEGRAM_BOT_TOKEN)")
	}
	if cfg.Airtable.APIKey == "" {
		return nil, errors.New("airtable api key is required (airtable.api_key / AIRTABLE_API_KEY)")
	}
	if cfg.Airtable.BaseID == "" {
		return nil, errors.New("airtable base id is required (airtable.base_id / AIRTABLE_BASE_ID)")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Port <= 0 {
		cfg.Bot.Port = 8080
	}
	if cfg.Bot.WebhookPath == "" {
		cfg.Bot.WebhookPath = "/webhook"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Airtable.APIURL == "" {
		cfg.Airtable.APIURL = "https://api.airtable.com/v0"
	}
	if cfg.Airtable.DirectoryTable == "" {
		cfg.Airtable.DirectoryTable = "Contacts"
	}
	if cfg.Airtable.MessageTable == "" {
		cfg.Airtable.MessageTable = "Telegram messages"
	}
	if cfg.Airtable.Timeout <= 0 {
		cfg.Airtable.Timeout = 10 * time.Second
	}
	if cfg.Redis.StateTTL <= 0 {
		cfg.Redis.StateTTL = 15 * time.Minute
	}
	if cfg.Redis.DedupTTL <= 0 {
		cfg.Redis.DedupTTL = 24 * time.Hour
	}
	if cfg.RateLimit.PerMinute <= 0 {
		cfg.RateLimit.PerMinute = 20
	}
}
