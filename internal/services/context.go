package services

import "context"

type contextKey string

const (
	scoreKey     contextKey = "score"
	modeKey      contextKey = "mode"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// WithScore annotates context with the score identifier under comparison.
func WithScore(ctx context.Context, identifier string) context.Context {
	if identifier == "" {
		return ctx
	}
	return context.WithValue(ctx, scoreKey, identifier)
}

// ScoreFromContext returns the score identifier if present.
func ScoreFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(scoreKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithMode annotates context with the comparison mode (single/multiple).
func WithMode(ctx context.Context, mode string) context.Context {
	if mode == "" {
		return ctx
	}
	return context.WithValue(ctx, modeKey, mode)
}

// ModeFromContext returns the comparison mode if present.
func ModeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(modeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier. Runs use
// their run ID here so every log line of a batch can be grouped.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
