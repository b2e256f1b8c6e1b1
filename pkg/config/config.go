package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/logging"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/source"
)

// Load reads a configuration file, layers BREADCRUMBS_* environment
// variables over it and checks every setting except sources, which the
// command line may still supply. An empty path searches the working
// directory and ~/.config/breadcrumbs for breadcrumbs.yaml and falls back
// to defaults when none exists.
func Load(_ context.Context, path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	cfg.applyEnvironmentOverrides()

	if err := validateSettings(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a complete configuration, including its sources, and
// fills in webhook defaults.
func Validate(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return errors.New("sources: at least one source is required")
	}

	for i := range cfg.Sources {
		if err := validateSource(&cfg.Sources[i]); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
	}

	return validateSettings(cfg)
}

func validateSettings(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return errors.New("server.addr: must not be empty")
	}

	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce: must not be negative, got %s", cfg.Watch.Debounce)
	}

	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout: must be positive, got %s", cfg.HTTP.Timeout)
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: invalid format %q (must be text or json)", cfg.Logging.Format)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateSource(src *SourceConfig) error {
	switch {
	case src.Path == "" && src.URL == "":
		return errors.New("one of path or url is required")
	case src.Path != "" && src.URL != "":
		return errors.New("path and url are mutually exclusive")
	}

	if src.URL != "" {
		if err := validateHTTPURL(src.URL); err != nil {
			return err
		}
	}

	if _, err := source.ParseFormat(src.Format); err != nil {
		return err
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	if err := validateHTTPURL(wh.URL); err != nil {
		return err
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnFailure
	case WebhookTriggerOnFailure, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_failure, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}

// LogValue summarizes the configuration without secrets.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("file", c.File),
		slog.Int("sources", len(c.Sources)),
		slog.String("addr", c.Server.Addr),
		slog.Bool("watch", c.Watch.Enabled),
		slog.Int("webhooks", len(c.Webhooks)),
	)
}
