package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes framework events to an slog.Logger.
// Useful for development when you want to see events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger. Errors are logged at Error
// level, everything else at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}

	if event.InstanceID != "" {
		attrs = append(attrs, slog.String("instance_id", event.InstanceID))
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if event.Name != "" {
		attrs = append(attrs, slog.String("name", event.Name))
	}

	// Add type-specific attributes
	switch {
	case event.Attribute != nil:
		if event.Attribute.Value != "" {
			attrs = append(attrs, slog.String("value", event.Attribute.Value))
		}
		if event.Attribute.Setpoint != "" {
			attrs = append(attrs, slog.String("setpoint", event.Attribute.Setpoint))
		}
		if event.Attribute.SyncSetpoint {
			attrs = append(attrs, slog.Bool("sync_setpoint", true))
		}
	case event.Scan != nil:
		attrs = append(attrs, slog.Duration("period", event.Scan.Period))
		if event.Scan.Elapsed > 0 {
			attrs = append(attrs, slog.Duration("elapsed", event.Scan.Elapsed))
		}
	case event.Group != nil:
		attrs = append(attrs,
			slog.Duration("period", event.Group.Period),
			slog.String("old_state", event.Group.OldState),
			slog.String("new_state", event.Group.NewState),
		)
		if event.Group.Operations > 0 {
			attrs = append(attrs, slog.Int("operations", event.Group.Operations))
		}
	}

	level := slog.LevelDebug
	msg := "strand event"
	if event.Error != nil {
		level = slog.LevelError
		msg = event.Error.Message
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
