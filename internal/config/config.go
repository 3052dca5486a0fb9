// Package config loads CookNet settings from a YAML (or JSON) file overlaid by
// COOKNET_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to upper-cased keys when reading the environment.
const EnvPrefix = "COOKNET_"

// Config is the full runtime configuration.
type Config struct {
	BotToken   string `mapstructure:"bot_token"`
	BackendURL string `mapstructure:"backend_url"`
	Listen     string `mapstructure:"listen"`
	Database   string `mapstructure:"database"`
	RedisURL   string `mapstructure:"redis_url"`

	StateTimeout time.Duration `mapstructure:"state_timeout"`
	BotInterval  time.Duration `mapstructure:"bot_interval"`
	WebInterval  time.Duration `mapstructure:"web_interval"`

	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	CaptchaAnswer string `mapstructure:"captcha_answer"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Listen:        ":10000",
		Database:      "cooknet.db",
		StateTimeout:  300 * time.Second,
		BotInterval:   3 * time.Second,
		WebInterval:   2 * time.Second,
		Workers:       4,
		QueueSize:     256,
		LogLevel:      "info",
		LogFormat:     "text",
		CaptchaAnswer: "5",
	}
}

// keys lists every recognised setting, used for the environment overlay.
var keys = []string{
	"bot_token", "backend_url", "listen", "database", "redis_url",
	"state_timeout", "bot_interval", "web_interval",
	"workers", "queue_size",
	"log_level", "log_format",
	"captcha_answer",
}

// Load reads path (if it exists), applies the environment and validates the result.
// An empty path skips the file.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	raw, err := readFile(path)
	if err != nil {
		return Config{}, err
	}

	for _, key := range keys {
		if v, ok := lookup(EnvPrefix + strings.ToUpper(key)); ok {
			raw[key] = v
		}
	}
	// Common hosting conventions.
	if _, ok := raw["bot_token"]; !ok {
		if v, ok := lookup("BOT_TOKEN"); ok {
			raw["bot_token"] = v
		}
	}
	if _, ok := raw["backend_url"]; !ok {
		if v, ok := lookup("BACKEND_URL"); ok {
			raw["backend_url"] = v
		}
	}
	if _, ok := raw["listen"]; !ok {
		if v, ok := lookup("PORT"); ok && v != "" {
			raw["listen"] = ":" + v
		}
	}

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")
	return cfg, cfg.Validate()
}

func readFile(path string) (map[string]any, error) {
	raw := map[string]any{}
	if path == "" {
		return raw, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return raw, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks values that would break the server at runtime.
func (c Config) Validate() error {
	var errs []error
	if c.StateTimeout <= 0 {
		errs = append(errs, errors.New("state_timeout must be positive"))
	}
	if c.BotInterval < 0 || c.WebInterval < 0 {
		errs = append(errs, errors.New("throttle intervals must not be negative"))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}
	if c.QueueSize < c.Workers {
		errs = append(errs, errors.New("queue_size must be at least workers"))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}
	return errors.Join(errs...)
}

// WebhookPath is the route Telegram posts updates to.
func (c Config) WebhookPath() string {
	return "/webhook/" + c.BotToken
}

// WebhookURL is the public address registered with Telegram.
func (c Config) WebhookURL() string {
	return c.BackendURL + c.WebhookPath()
}
