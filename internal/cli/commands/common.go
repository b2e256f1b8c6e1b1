package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/config"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/loader"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/logging"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/source"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// Exit codes.
const (
	ExitOK        = 0
	ExitNoEntries = 1
	ExitFailure   = 2
)

// StdinArg is the source argument that reads stdin.
const StdinArg = "-"

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// AddFlags registers the persistent flags on cmd.
func (g *GlobalOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "Config file (default ./breadcrumbs.yaml)")
	cmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&g.LogFormat, "log-format", "", "Log format (text|json)")
}

// WebhookOptions holds the per-run webhook flags.
type WebhookOptions struct {
	URL     string
	Token   string
	Trigger string
}

// AddFlags registers the webhook flags on cmd.
func (w *WebhookOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.URL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&w.Token, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&w.Trigger, "webhook-trigger", string(config.WebhookTriggerOnFailure), "When to fire webhook (on_failure|always|never)")
}

// webhook returns the command-line webhook, if one was given.
func (w *WebhookOptions) webhook() (config.WebhookConfig, bool) {
	if w == nil || w.URL == "" {
		return config.WebhookConfig{}, false
	}
	return config.WebhookConfig{
		Name:    "cli",
		URL:     w.URL,
		Token:   w.Token,
		Trigger: config.WebhookTrigger(w.Trigger),
		Timeout: config.DefaultWebhookTimeout,
	}, true
}

// loadConfig reads the config file and replaces its sources with args when
// any are given. A command-line webhook is added to the configured ones.
func (g *GlobalOptions) loadConfig(ctx context.Context, args []string, wh *WebhookOptions) (*config.Config, error) {
	cfg, err := config.Load(ctx, g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if len(args) > 0 {
		cfg.Sources = cfg.Sources[:0]
		for _, arg := range args {
			cfg.Sources = append(cfg.Sources, config.SourceFromArg(arg))
		}
	}
	if extra, ok := wh.webhook(); ok {
		cfg.Webhooks = append(cfg.Webhooks, extra)
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Logging.Format = g.LogFormat
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// session is everything a command needs to run a load.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	loader *loader.Loader
}

// open loads the config, builds the sources and returns a loader wired to
// the configured webhooks. Nothing is read yet.
func (g *GlobalOptions) open(cmd *cobra.Command, args []string, wh *WebhookOptions) (*session, error) {
	cfg, err := g.loadConfig(commandContext(cmd), args, wh)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger.Debug("config loaded", slog.Any("config", cfg))

	sources, err := buildSources(cfg, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}

	opts := []loader.Option{loader.WithLogger(logger)}
	if len(cfg.Webhooks) > 0 {
		opts = append(opts, loader.WithHook(webhook.NewNotifier(cfg.Webhooks, logger).Hook()))
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		loader: loader.New(sources, opts...),
	}, nil
}

// load runs one load. A failed load is returned as an error, so the
// command exits with ExitFailure.
func (s *session) load(ctx context.Context) (*loader.State, error) {
	st, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("no data available: %w", err)
	}
	return st, nil
}

// buildSources turns the configured sources into readers. Paths expand
// through globs and directories; "-" reads stdin. An empty directory
// contributes no sources.
func buildSources(cfg *config.Config, stdin io.Reader) ([]source.Source, error) {
	var sources []source.Source

	for i, sc := range cfg.Sources {
		format, err := source.ParseFormat(sc.Format)
		if err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}

		switch {
		case sc.URL != "":
			sources = append(sources, source.NewHTTPSource(sc.URL, format, source.WithTimeout(cfg.HTTP.Timeout)))
		case sc.Path == StdinArg:
			sources = append(sources, source.NewReaderSource("stdin", stdin, format))
		default:
			files, err := source.ExpandPaths([]string{sc.Path})
			if err != nil {
				return nil, fmt.Errorf("sources[%d]: %w", i, err)
			}
			for _, f := range files {
				sources = append(sources, source.NewFileSource(f, format))
			}
		}
	}

	return sources, nil
}

// watchPaths returns the configured path sources that can be watched.
func watchPaths(cfg *config.Config) []string {
	var paths []string
	for _, sc := range cfg.Sources {
		if sc.Path != "" && sc.Path != StdinArg {
			paths = append(paths, sc.Path)
		}
	}
	return paths
}

// parseTimeRange returns the window ending now for a duration like 2h.
func parseTimeRange(s string, now time.Time) (time.Time, time.Time, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time-range %q: %w", s, err)
	}
	if d <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time-range %q: must be positive", s)
	}
	return now.Add(-d), now, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
