package logging

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"captionsync/internal/services"
)

// Structured field keys shared by every handler.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldStage     = "stage"
	FieldVideo     = "video"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
)

const (
	defaultHint   = "check logs for details"
	defaultImpact = "operation completed with warnings"
)

type Attr = slog.Attr

func Bool(key string, v bool) Attr { return slog.Bool(key, v) }
func Duration(key string, v time.Duration) Attr { return slog.Duration(key, v) }
func Float64(key string, v float64) Attr { return slog.Float64(key, v) }
func Int(key string, v int) Attr { return slog.Int(key, v) }
func String(key, v string) Attr { return slog.String(key, v) }

// Error records err under the "error" key.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewComponentLogger tags logger with a component name. A nil logger becomes
// a no-op.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(FieldComponent, component)
}

// WithContext stamps run id, stage and video from ctx onto logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.RunIDFromContext(ctx); ok {
		args = append(args, FieldRunID, id)
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, FieldStage, stage)
	}
	if video, ok := services.VideoFromContext(ctx); ok {
		args = append(args, FieldVideo, video)
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}

// WarnWithContext logs a degraded-path warning. event_type, error_hint and
// impact are filled in when attrs leaves them out.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logWithDefaults(logger, slog.LevelWarn, msg, attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, defaultHint),
		String(FieldImpact, defaultImpact))
}

// ErrorWithContext is WarnWithContext at error level, without an impact default.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logWithDefaults(logger, slog.LevelError, msg, attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, defaultHint))
}

func logWithDefaults(logger *slog.Logger, level slog.Level, msg string, attrs []Attr, defaults ...Attr) {
	if logger == nil {
		return
	}
	for _, d := range defaults {
		if !slices.ContainsFunc(attrs, func(a Attr) bool { return a.Key == d.Key }) {
			attrs = append(attrs, d)
		}
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}
