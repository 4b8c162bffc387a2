package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/atelier/internal/decor"
	"github.com/starford/atelier/internal/models"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Site    SiteConfig        `yaml:"site"`
	Decor   decor.Presets     `yaml:"decor"`
	Events  EventsConfig      `yaml:"events"`
}

// Validate validates the configuration. Unset decor values are filled
// from the built-in scene defaults first.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	c.Decor = c.Decor.Normalize()
	if err := c.Decor.Validate(); err != nil {
		return fmt.Errorf("decor: %w", err)
	}
	return c.Events.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig holds the path to the content root.
type ContentConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

var baseURLRe = regexp.MustCompile(`^https?://[^\s/]+(/\S*)?$`)

// SiteConfig holds the site metadata.
type SiteConfig struct {
	models.SiteInfo `yaml:",inline"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(&c.SiteInfo,
		validation.Field(&c.Title, validation.Required, validation.Length(1, 120)),
		validation.Field(&c.BaseURL, validation.Match(baseURLRe)),
	)
}

// EventsConfig tunes the live event stream.
type EventsConfig struct {
	// Throttle is the minimum gap between site.changed events.
	Throttle time.Duration `yaml:"throttle"`
	// Heartbeat is how often idle streams get a keep-alive comment.
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(100*time.Millisecond)),
		validation.Field(&c.Heartbeat, validation.Min(time.Second)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Path: "./content",
		},
		SQLite: SQLiteConfig{
			Path: "./atelier.db",
		},
		Site: SiteConfig{
			SiteInfo: models.SiteInfo{Title: "Atelier"},
		},
		Decor: decor.DefaultPresets(),
		Events: EventsConfig{
			Throttle:  2 * time.Second,
			Heartbeat: 25 * time.Second,
		},
	}
}
