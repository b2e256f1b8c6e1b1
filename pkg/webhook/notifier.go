package webhook

import (
	"context"
	"log/slog"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/config"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/loader"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/logging"
)

// Notifier sends an event to every configured webhook whose trigger
// matches the load outcome.
type Notifier struct {
	client   *Client
	webhooks []config.WebhookConfig
	logger   *slog.Logger
}

// NewNotifier creates a notifier for validated webhook configs.
func NewNotifier(webhooks []config.WebhookConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		client:   NewClient(),
		webhooks: webhooks,
		logger:   logging.Component(logger, "webhook"),
	}
}

// Hook returns a loader hook that notifies after every load.
func (n *Notifier) Hook() loader.Hook {
	return func(ctx context.Context, st *loader.State) {
		n.Notify(ctx, st)
	}
}

// Notify sends st to the matching webhooks and returns the responses of
// those that fired. Failures are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, st *loader.State) []*Response {
	var (
		event     *Event
		responses []*Response
	)

	for _, wh := range n.webhooks {
		if !ShouldFire(wh.Trigger, st) {
			continue
		}
		if event == nil {
			event = NewEvent(st)
		}

		resp := n.client.Send(ctx, event, SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})
		responses = append(responses, resp)

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			n.logger.Info("webhook sent",
				slog.String("webhook", name),
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", resp.Duration),
			)
		} else {
			n.logger.Warn("webhook failed",
				slog.String("webhook", name),
				slog.Int("status", resp.StatusCode),
				slog.Any("error", resp.Error),
			)
		}
	}

	return responses
}

// ShouldFire determines if a webhook fires for a load outcome.
func ShouldFire(trigger config.WebhookTrigger, st *loader.State) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return st.Failed()
	}
}
