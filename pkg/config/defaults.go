package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration.
const (
	DefaultServerAddr     = "127.0.0.1:7428"
	DefaultDebounce       = 250 * time.Millisecond
	DefaultHTTPTimeout    = 10 * time.Second
	DefaultWebhookTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultConfigName     = "breadcrumbs"
)

// Environment variables.
const (
	EnvPrefix = "BREADCRUMBS"

	// EnvSources is a comma-separated list of paths or URLs that replaces
	// the configured sources.
	EnvSources = "BREADCRUMBS_SOURCES"
)

// DefaultConfig returns a configuration with sensible defaults and no sources.
func DefaultConfig() *Config {
	return &Config{
		Sources: []SourceConfig{},
		Server:  ServerConfig{Addr: DefaultServerAddr},
		Watch:   WatchConfig{Enabled: true, Debounce: DefaultDebounce},
		HTTP:    HTTPConfig{Timeout: DefaultHTTPTimeout},
		Logging: LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("watch.enabled", d.Watch.Enabled)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// applyEnvironmentOverrides applies overrides viper cannot bind to a list
// of structs.
func (c *Config) applyEnvironmentOverrides() {
	raw := os.Getenv(EnvSources)
	if strings.TrimSpace(raw) == "" {
		return
	}

	c.Sources = c.Sources[:0]
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		c.Sources = append(c.Sources, SourceFromArg(item))
	}
}

// SourceFromArg builds a source from a CLI argument: http(s) URLs become
// URL sources, anything else a path.
func SourceFromArg(arg string) SourceConfig {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return SourceConfig{URL: arg}
	}
	return SourceConfig{Path: arg}
}
