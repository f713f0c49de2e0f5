package logging

import "context"

type contextKey int

const (
	cycleIDKey contextKey = iota
	taskIDKey
)

// WithCycleID attaches an improvement-cycle identifier to the context so that
// every log line emitted during the cycle carries it.
func WithCycleID(ctx context.Context, cycleID string) context.Context {
	return context.WithValue(ctx, cycleIDKey, cycleID)
}

// GetCycleID returns the cycle identifier stored in the context, if any.
func GetCycleID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(cycleIDKey).(string)
	return id, ok
}

// WithTaskID attaches the curriculum task identifier to the context.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskIDKey, taskID)
}

// GetTaskID returns the task identifier stored in the context, if any.
func GetTaskID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(taskIDKey).(string)
	return id, ok
}
