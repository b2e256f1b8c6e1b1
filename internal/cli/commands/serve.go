package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/server"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/watch"
)

// ServeOptions holds command-line options for the serve command.
type ServeOptions struct {
	Addr    string
	NoWatch bool

	Webhook WebhookOptions
}

// NewServeCommand creates the serve command.
func NewServeCommand(g *GlobalOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve [source...]",
		Short: "Serve sessions over an HTTP API",
		Long: `Load the sources and serve sessions, traces, stats and exports over
HTTP. File sources are watched and reloaded when they change; POST
/api/reload reloads on demand.

A failed load does not stop the server: requests get a 503 until a later
load succeeds.`,
		Example: `  breadcrumbs serve agent_logs.csv
  breadcrumbs serve --addr :8080 --no-watch http://127.0.0.1:9000/agent_logs.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default from config, 127.0.0.1:7428)")
	cmd.Flags().BoolVar(&opts.NoWatch, "no-watch", false, "Do not reload when file sources change")
	opts.Webhook.AddFlags(cmd)

	return cmd
}

func runServe(cmd *cobra.Command, args []string, g *GlobalOptions, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := g.open(cmd, args, &opts.Webhook)
	if err != nil {
		return err
	}

	addr := s.cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	// The server starts even when the first load fails.
	if _, err := s.loader.Load(ctx); err != nil {
		s.logger.Warn("initial load failed", slog.String("error", err.Error()))
	}

	var watcher *watch.Watcher
	if paths := watchPaths(s.cfg); s.cfg.Watch.Enabled && !opts.NoWatch && len(paths) > 0 {
		watcher, err = watch.New(paths, func(ctx context.Context) error {
			_, err := s.loader.Load(ctx)
			return err
		}, watch.WithDebounce(s.cfg.Watch.Debounce), watch.WithLogger(s.logger))
		if err != nil {
			return err
		}
	}

	srv := server.NewServer(addr, s.loader, server.WithLogger(s.logger))
	if err := srv.Start(); err != nil {
		if watcher != nil {
			_ = watcher.Close()
		}
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving %d source(s) on http://%s\n", len(s.loader.Sources()), srv.Addr())

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		<-gctx.Done()
		return srv.Stop()
	})

	if watcher != nil {
		grp.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	if err := grp.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Server stopped")
	return nil
}
