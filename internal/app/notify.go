package app

import (
	"context"
	"log/slog"
)

// Notifier delivers interaction events to interested parties. Calls are
// fire-and-forget: failures are logged and never block or abort the
// transaction that triggered them.
type Notifier interface {
	Notify(ctx context.Context, interactionID, event string)
}

// LogNotifier writes notifications to the structured log. Delivery channels
// (email, push) live behind this interface and are out of scope here.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, interactionID, event string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notify", "interaction_id", interactionID, "event", event)
}
