package services

import (
	"context"
	"strings"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	stageKey
	videoKey
)

func withValue(ctx context.Context, key ctxKey, v string) context.Context {
	if strings.TrimSpace(v) == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func value(ctx context.Context, key ctxKey) (string, bool) {
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithRunID tags ctx with the rating run id. Blank ids leave ctx unchanged.
func WithRunID(ctx context.Context, id string) context.Context {
	return withValue(ctx, runIDKey, id)
}

// WithStage tags ctx with the pipeline stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

// WithVideo tags ctx with the video being rated.
func WithVideo(ctx context.Context, path string) context.Context {
	return withValue(ctx, videoKey, path)
}

func RunIDFromContext(ctx context.Context) (string, bool) { return value(ctx, runIDKey) }
func StageFromContext(ctx context.Context) (string, bool) { return value(ctx, stageKey) }
func VideoFromContext(ctx context.Context) (string, bool) { return value(ctx, videoKey) }
