package logging

// LogEntry represents a structured log record with fields relevant to
// self-improvement cycles.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Learning-loop fields
	CycleID string // The improvement cycle this entry belongs to
	TaskID  string // The curriculum task being attempted

	// General structured data
	Fields map[string]interface{}
}
