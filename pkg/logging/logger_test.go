package logging

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryOutput captures entries for inspection.
type memoryOutput struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (m *memoryOutput) Write(e LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryOutput) Sync() error  { return nil }
func (m *memoryOutput) Close() error { return nil }

func (m *memoryOutput) all() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogEntry(nil), m.entries...)
}

func TestSeverityFiltering(t *testing.T) {
	out := &memoryOutput{}
	logger := NewLogger(Config{Severity: WARN, Outputs: []Output{out}})
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	entries := out.all()
	require.Len(t, entries, 2)
	assert.Equal(t, WARN, entries[0].Severity)
	assert.Equal(t, ERROR, entries[1].Severity)
}

func TestContextPropagation(t *testing.T) {
	out := &memoryOutput{}
	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{out}})

	ctx := WithCycleID(context.Background(), "cycle-42")
	ctx = WithTaskID(ctx, "simple_button")

	logger.Info(ctx, "attempt %d scored %.1f", 1, 88.5)

	entries := out.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "cycle-42", entries[0].CycleID)
	assert.Equal(t, "simple_button", entries[0].TaskID)
	assert.Equal(t, "attempt 1 scored 88.5", entries[0].Message)
}

func TestDefaultFields(t *testing.T) {
	out := &memoryOutput{}
	logger := NewLogger(Config{
		Severity:      INFO,
		Outputs:       []Output{out},
		DefaultFields: map[string]interface{}{"component": "engine"},
	})

	logger.Info(context.Background(), "hello")

	entries := out.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "engine", entries[0].Fields["component"])
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, DEBUG, ParseSeverity("DEBUG"))
	assert.Equal(t, ERROR, ParseSeverity("ERROR"))
	assert.Equal(t, INFO, ParseSeverity("bogus"))
}

func TestGetLoggerReturnsSingleton(t *testing.T) {
	custom := NewLogger(Config{Severity: DEBUG, Outputs: []Output{&memoryOutput{}}})
	SetLogger(custom)
	assert.Same(t, custom, GetLogger())
}
