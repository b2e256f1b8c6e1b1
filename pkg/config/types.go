// Package config provides configuration loading and validation for breadcrumbs.
package config

import (
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Sources  []SourceConfig  `mapstructure:"sources"`
	Server   ServerConfig    `mapstructure:"server"`
	Watch    WatchConfig     `mapstructure:"watch"`
	HTTP     HTTPConfig      `mapstructure:"http"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Webhooks []WebhookConfig `mapstructure:"webhooks"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// SourceConfig is one log source. Exactly one of Path and URL is set.
type SourceConfig struct {
	// Path is a file, glob pattern, or directory.
	Path string `mapstructure:"path"`

	// URL is fetched over HTTP(S) on every load.
	URL string `mapstructure:"url"`

	// Format is csv, jsonl, or json. Empty means detect by extension.
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// WatchConfig configures reloads on file changes.
type WatchConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Debounce is how long a file must be quiet before a reload.
	Debounce time.Duration `mapstructure:"debounce"`
}

// HTTPConfig configures URL sources.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig configures the diagnostic logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnFailure fires when a load fails (default).
	WebhookTriggerOnFailure WebhookTrigger = "on_failure"
	// WebhookTriggerAlways fires after every load.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines an endpoint notified after loads.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `mapstructure:"name"`

	// URL is the webhook endpoint (required).
	URL string `mapstructure:"url"`

	// Token is an optional bearer token. ${VAR} and $VAR are expanded.
	Token string `mapstructure:"token"`

	// Trigger defaults to on_failure.
	Trigger WebhookTrigger `mapstructure:"trigger"`

	// Timeout defaults to 10s.
	Timeout time.Duration `mapstructure:"timeout"`
}
