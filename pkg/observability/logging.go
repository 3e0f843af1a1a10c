package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

var severityRank = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// logOutput is the destination for log entries. It's a variable to allow redirection in tests.
var logOutput io.Writer = os.Stdout

// minLevel is the process-wide severity floor, settable from config.
var minLevel = LogLevelInfo

// SetLogOutput sets the output destination for the structured logger.
func SetLogOutput(w io.Writer) {
	logOutput = w
}

// SetLogLevel sets the minimum severity that gets written. Accepts the
// config spelling ("debug", "info", "warn", "error"); unknown values keep
// the current floor.
func SetLogLevel(level string) {
	l := LogLevel(strings.ToUpper(strings.TrimSpace(level)))
	if _, ok := severityRank[l]; ok {
		minLevel = l
	}
}

// StructuredLogger emits JSON log lines correlated with the active trace.
// Loggers are scoped to a component and optionally to a research session.
type StructuredLogger struct {
	output    io.Writer
	component string
	queryID   string
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(component string) *StructuredLogger {
	return &StructuredLogger{
		output:    logOutput,
		component: component,
	}
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp  string                 `json:"timestamp"`
	Severity   LogLevel               `json:"severity"`
	Component  string                 `json:"component"`
	Message    string                 `json:"message"`
	QueryID    string                 `json:"query_id,omitempty"`
	TraceID    string                 `json:"trace_id,omitempty"`
	SpanID     string                 `json:"span_id,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// extractTraceInfo extracts trace and span IDs from context
func extractTraceInfo(ctx context.Context) (traceID, spanID string) {
	span := trace.SpanFromContext(ctx)
	if span != nil {
		spanCtx := span.SpanContext()
		if spanCtx.IsValid() {
			traceID = spanCtx.TraceID().String()
			spanID = spanCtx.SpanID().String()
		}
	}
	return traceID, spanID
}

// log writes a structured log entry
func (l *StructuredLogger) log(ctx context.Context, level LogLevel, message string, attrs map[string]interface{}) {
	if severityRank[level] < severityRank[minLevel] {
		return
	}

	traceID, spanID := extractTraceInfo(ctx)

	entry := LogEntry{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Severity:   level,
		Component:  l.component,
		Message:    message,
		QueryID:    l.queryID,
		TraceID:    traceID,
		SpanID:     spanID,
		Attributes: attrs,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		// Fallback to plain output if an attribute value won't marshal
		fmt.Fprintf(l.output, "[%s] %s: %s\n", level, l.component, message)
		return
	}

	fmt.Fprintln(l.output, string(data))
}

// Debug logs a debug message
func (l *StructuredLogger) Debug(ctx context.Context, message string, attrs ...map[string]interface{}) {
	var attributes map[string]interface{}
	if len(attrs) > 0 {
		attributes = attrs[0]
	}
	l.log(ctx, LogLevelDebug, message, attributes)
}

// Info logs an info message
func (l *StructuredLogger) Info(ctx context.Context, message string, attrs ...map[string]interface{}) {
	var attributes map[string]interface{}
	if len(attrs) > 0 {
		attributes = attrs[0]
	}
	l.log(ctx, LogLevelInfo, message, attributes)
}

// Warn logs a warning message
func (l *StructuredLogger) Warn(ctx context.Context, message string, attrs ...map[string]interface{}) {
	var attributes map[string]interface{}
	if len(attrs) > 0 {
		attributes = attrs[0]
	}
	l.log(ctx, LogLevelWarn, message, attributes)
}

// Error logs an error message
func (l *StructuredLogger) Error(ctx context.Context, message string, err error, attrs ...map[string]interface{}) {
	var attributes map[string]interface{}
	if len(attrs) > 0 {
		attributes = attrs[0]
	} else {
		attributes = make(map[string]interface{})
	}

	if err != nil {
		attributes["error"] = err.Error()
	}

	l.log(ctx, LogLevelError, message, attributes)
}

// WithComponent creates a new logger with a different component name
func (l *StructuredLogger) WithComponent(component string) *StructuredLogger {
	return &StructuredLogger{
		output:    l.output,
		component: component,
		queryID:   l.queryID,
	}
}

// WithSession creates a new logger that stamps every entry with the
// research query ID
func (l *StructuredLogger) WithSession(queryID string) *StructuredLogger {
	return &StructuredLogger{
		output:    l.output,
		component: l.component,
		queryID:   queryID,
	}
}

// Logger interface for dependency injection
type Logger interface {
	Debug(ctx context.Context, message string, attrs ...map[string]interface{})
	Info(ctx context.Context, message string, attrs ...map[string]interface{})
	Warn(ctx context.Context, message string, attrs ...map[string]interface{})
	Error(ctx context.Context, message string, err error, attrs ...map[string]interface{})
}
