package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("trace_id", event.TraceID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Instance != "" {
		attrs = append(attrs, slog.String("instance", event.Instance))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}

	switch {
	case event.Datagram != nil:
		attrs = append(attrs,
			slog.Int("size", event.Datagram.Size),
			slog.Bool("truncated", event.Datagram.Truncated),
		)
	case event.Message != nil:
		attrs = append(attrs,
			slog.Uint64("session", uint64(event.Message.SessionID)),
			slog.Bool("reboot", event.Message.Reboot),
			slog.Int("entries", len(event.Message.Entries)),
			slog.Int("options", event.Message.Options),
		)
		for _, e := range event.Message.Entries {
			attrs = append(attrs, slog.Group("entry",
				slog.String("type", e.Type.String()),
				slog.Uint64("service", uint64(e.ServiceID)),
				slog.Uint64("instance", uint64(e.InstanceID)),
				slog.Uint64("ttl", uint64(e.TTL)),
			))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("name", event.StateChange.Name),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "sd", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
