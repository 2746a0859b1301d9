package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type ProviderConfig struct {
	Provider string `yaml:"provider"` // "gemini" or "openai"
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	APIURL   string `yaml:"api_url,omitempty"`
}

type LLMConfig struct {
	Primary  *ProviderConfig `yaml:"primary"`
	Fallback *ProviderConfig `yaml:"fallback,omitempty"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
}

type ScheduleConfig struct {
	Timezone string `yaml:"timezone"`
	PushHour int    `yaml:"push_hour"`
	PushMin  int    `yaml:"push_minute"`
	Prefetch string `yaml:"prefetch"` // cron spec
}

type DigestConfig struct {
	SinceHours      int    `yaml:"since_hours"`
	Concurrency     int    `yaml:"concurrency"`
	MinItems        int    `yaml:"min_items"`
	MaxItems        int    `yaml:"max_items"`
	BatchSize       int    `yaml:"batch_size"`
	DefaultLanguage string `yaml:"default_language"`
	RetentionDays   int    `yaml:"retention_days"`
}

type Config struct {
	Schedule ScheduleConfig `yaml:"schedule"`
	Digest   DigestConfig   `yaml:"digest"`
	LLM      LLMConfig      `yaml:"llm"`
	Telegram TelegramConfig `yaml:"telegram"`
	Sources  []feed.Source  `yaml:"sources"`
	DBPath   string         `yaml:"db_path,omitempty"`
}

// PrimaryKey and FallbackKey resolve API keys from config or environment.
func (c *Config) PrimaryKey() string {
	return resolveKey(c.LLM.Primary)
}

func (c *Config) FallbackKey() string {
	return resolveKey(c.LLM.Fallback)
}

func resolveKey(pc *ProviderConfig) string {
	if pc == nil {
		return ""
	}
	if pc.APIKey != "" {
		return pc.APIKey
	}
	switch pc.Provider {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// TelegramToken resolves the bot token from config or environment.
func (c *Config) TelegramToken() string {
	if c.Telegram.Token != "" {
		return c.Telegram.Token
	}
	return os.Getenv("TELEGRAM_BOT_TOKEN")
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PushSpec returns the daily digest schedule as a cron expression.
func (c *Config) PushSpec() string {
	return fmt.Sprintf("%d %d * * *", c.Schedule.PushMin, c.Schedule.PushHour)
}

func (c *Config) PrefetchSpec() string {
	if c.Schedule.Prefetch == "" {
		return "*/30 * * * *"
	}
	return c.Schedule.Prefetch
}

func (c *Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(xdg.DataHome, "web3-info-denoise", "denoise.db")
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "web3-info-denoise", "config.yaml")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
	}

	if cfg.LLM.Primary == nil {
		return fmt.Errorf("llm.primary is required")
	}
	for _, pc := range []*ProviderConfig{cfg.LLM.Primary, cfg.LLM.Fallback} {
		if pc == nil {
			continue
		}
		if pc.Provider != "gemini" && pc.Provider != "openai" {
			return fmt.Errorf("unknown llm provider %q (valid: gemini, openai)", pc.Provider)
		}
	}

	if h := cfg.Schedule.PushHour; h < 0 || h > 23 {
		return fmt.Errorf("schedule.push_hour %d out of range", h)
	}
	if m := cfg.Schedule.PushMin; m < 0 || m > 59 {
		return fmt.Errorf("schedule.push_minute %d out of range", m)
	}
	return nil
}
