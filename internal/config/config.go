// Package config loads and validates startup configuration. Behavior is
// configured through a YAML file; Discord credentials come from the
// environment (optionally via a .env file).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if parsed <= 0 {
		return fmt.Errorf("duration %q must be positive", raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Discord holds the outbound transport credentials, all read from the
// environment.
type Discord struct {
	// OffersWebhookURL receives one message per new in-range offer.
	OffersWebhookURL string `validate:"omitempty,url"`
	// DevWebhookURL receives mirrored error-level log events.
	DevWebhookURL string `validate:"omitempty,url"`
	// BotToken and OffersChannelID are needed to edit the channel topic
	// with the "last update" marker.
	BotToken        string
	OffersChannelID string
}

// Config is the full startup configuration.
type Config struct {
	Debug bool `yaml:"debug"`

	// Sources lists the enabled source names; see internal/source.
	Sources []string `yaml:"sources" validate:"required,min=1"`

	// MaxPrice is the inclusive monthly price ceiling in CZK.
	MaxPrice int `yaml:"max_price" validate:"gt=0"`

	// Daytime window on the local wall clock, [start, end).
	DaytimeStartHour int `yaml:"daytime_start_hour" validate:"gte=0,lte=23"`
	DaytimeEndHour   int `yaml:"daytime_end_hour" validate:"gte=1,lte=24"`

	RefreshIntervalDaytime   Duration `yaml:"refresh_interval_daytime"`
	RefreshIntervalNighttime Duration `yaml:"refresh_interval_nighttime"`

	// SourceTimeout bounds each source's fetch within a tick.
	SourceTimeout Duration `yaml:"source_timeout"`

	StoragePath string `yaml:"storage_path" validate:"required"`
	MetricsAddr string `yaml:"metrics_addr"`

	Discord Discord `yaml:"-"`
}

func defaults() *Config {
	return &Config{
		DaytimeStartHour:         6,
		DaytimeEndHour:           22,
		RefreshIntervalDaytime:   Duration(15 * time.Minute),
		RefreshIntervalNighttime: Duration(time.Hour),
		SourceTimeout:            Duration(30 * time.Second),
		StoragePath:              "data/flatbot.db",
		MetricsAddr:              ":8080",
	}
}

// Load reads the YAML file at path, fills in defaults and environment
// credentials, and validates the result. A .env file in the working
// directory is honored when present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; real deployments use the environment directly.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.Discord = Discord{
		OffersWebhookURL: os.Getenv("DISCORD_OFFERS_WEBHOOK_URL"),
		DevWebhookURL:    os.Getenv("DISCORD_DEV_WEBHOOK_URL"),
		BotToken:         os.Getenv("DISCORD_BOT_TOKEN"),
		OffersChannelID:  os.Getenv("DISCORD_OFFERS_CHANNEL_ID"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var structValidator = validator.New()

// Validate checks field constraints plus the relations the tags cannot
// express.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := structValidator.Struct(c.Discord); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.DaytimeStartHour >= c.DaytimeEndHour {
		return fmt.Errorf("daytime window [%d, %d) is empty", c.DaytimeStartHour, c.DaytimeEndHour)
	}
	if c.RefreshIntervalDaytime <= 0 || c.RefreshIntervalNighttime <= 0 {
		return fmt.Errorf("refresh intervals must be positive")
	}
	if (c.Discord.BotToken == "") != (c.Discord.OffersChannelID == "") {
		return fmt.Errorf("DISCORD_BOT_TOKEN and DISCORD_OFFERS_CHANNEL_ID must be set together")
	}
	return nil
}
