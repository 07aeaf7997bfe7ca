package services

import (
	"context"
	"time"

	"github.com/comptrack/comptrack-backend/internal/ingest"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
	"github.com/comptrack/comptrack-backend/internal/realtime"
	"github.com/comptrack/comptrack-backend/internal/realtime/bus"
)

// Notifier publishes tracker events onto the bus. Every publish is
// best-effort: the write path never depends on the realtime channel.
type Notifier struct {
	log *logger.Logger
	bus bus.Bus
}

func NewNotifier(baseLog *logger.Logger, b bus.Bus) *Notifier {
	return &Notifier{log: baseLog.With("service", "Notifier"), bus: b}
}

// PublishProgress satisfies ingest.Broadcaster.
func (n *Notifier) PublishProgress(ctx context.Context, ev ingest.ProgressEvent) error {
	return n.bus.Publish(ctx, realtime.Message{
		Channel: realtime.ChannelGlobal,
		Event:   realtime.EventUploadProgress,
		Data:    ev,
	})
}

// ComponentChanged announces a CRUD mutation (action is created, updated or
// deleted).
func (n *Notifier) ComponentChanged(ctx context.Context, action string, data map[string]any) {
	payload := map[string]any{
		"action":    action,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := n.bus.Publish(ctx, realtime.Message{
		Channel: realtime.ChannelGlobal,
		Event:   realtime.EventComponentUpdate,
		Data:    payload,
	}); err != nil {
		n.log.Warn("component event publish failed", "action", action, "error", err)
	}
}

func (n *Notifier) ActivityLogged(ctx context.Context, data map[string]any) {
	payload := map[string]any{
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := n.bus.Publish(ctx, realtime.Message{
		Channel: realtime.ChannelGlobal,
		Event:   realtime.EventActivityUpdate,
		Data:    payload,
	}); err != nil {
		n.log.Warn("activity event publish failed", "error", err)
	}
}
