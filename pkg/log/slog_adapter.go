package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}

	// Add type-specific attributes
	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Message != nil:
		attrs = append(attrs,
			slog.Uint64("msg_id", uint64(event.Message.MessageID)),
			slog.String("msg_type", event.Message.Type.String()),
		)
		if event.Message.Operation != nil {
			attrs = append(attrs, slog.String("operation", event.Message.Operation.String()))
		}
		if event.Message.Component != "" {
			attrs = append(attrs, slog.String("component", event.Message.Component))
		}
		if event.Message.Capability != "" {
			attrs = append(attrs, slog.String("capability", event.Message.Capability))
		}
		if event.Message.Status != nil {
			attrs = append(attrs, slog.String("status", event.Message.Status.String()))
		}
		if event.Message.SubscriptionID != nil {
			attrs = append(attrs, slog.Uint64("subscription", uint64(*event.Message.SubscriptionID)))
		}
		if event.Message.ProcessingTime != nil {
			attrs = append(attrs, slog.Duration("processing_time", *event.Message.ProcessingTime))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
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
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	case event.Snapshot != nil:
		if event.Snapshot.Local != nil {
			attrs = append(attrs,
				slog.String("local_device", event.Snapshot.Local.DeviceID),
				slog.Int("local_components", len(event.Snapshot.Local.Components)),
			)
		}
		if event.Snapshot.Remote != nil {
			attrs = append(attrs,
				slog.String("remote_device", event.Snapshot.Remote.DeviceID),
				slog.Int("remote_components", len(event.Snapshot.Remote.Components)),
			)
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
