package observability

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	meter metric.Meter

	// Counters
	researchRequestsTotal metric.Int64Counter
	researchRoundsTotal   metric.Int64Counter
	llmRequestsTotal      metric.Int64Counter
	llmTokensUsedTotal    metric.Int64Counter
	toolExecutionsTotal   metric.Int64Counter
	cacheLookupsTotal     metric.Int64Counter
	validationIssuesTotal metric.Int64Counter

	// Histograms
	researchDuration      metric.Float64Histogram
	llmRequestDuration    metric.Float64Histogram
	toolExecutionDuration metric.Float64Histogram

	// Gauges (using async instruments)
	activeSessions metric.Int64ObservableGauge

	activeSessionCount atomic.Int64
}

// NewMetrics creates and initializes all metrics
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{
		meter: meter,
	}

	var err error

	m.researchRequestsTotal, err = meter.Int64Counter(
		"research_requests_total",
		metric.WithDescription("Total number of research requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.researchRoundsTotal, err = meter.Int64Counter(
		"research_rounds_total",
		metric.WithDescription("Total number of tool-use rounds across all sessions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.llmRequestsTotal, err = meter.Int64Counter(
		"llm_requests_total",
		metric.WithDescription("Total number of LLM requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.llmTokensUsedTotal, err = meter.Int64Counter(
		"llm_tokens_used_total",
		metric.WithDescription("Total number of LLM tokens used"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.toolExecutionsTotal, err = meter.Int64Counter(
		"tool_executions_total",
		metric.WithDescription("Total number of tool executions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.cacheLookupsTotal, err = meter.Int64Counter(
		"tool_cache_lookups_total",
		metric.WithDescription("Total number of tool cache lookups"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.validationIssuesTotal, err = meter.Int64Counter(
		"validation_issues_total",
		metric.WithDescription("Total number of validation errors and warnings"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.researchDuration, err = meter.Float64Histogram(
		"research_duration_seconds",
		metric.WithDescription("Duration of research sessions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.llmRequestDuration, err = meter.Float64Histogram(
		"llm_request_duration_seconds",
		metric.WithDescription("Duration of LLM requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.toolExecutionDuration, err = meter.Float64Histogram(
		"tool_execution_duration_seconds",
		metric.WithDescription("Duration of tool executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.activeSessions, err = meter.Int64ObservableGauge(
		"active_research_sessions",
		metric.WithDescription("Number of research sessions in flight"),
		metric.WithUnit("1"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.activeSessionCount.Load())
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordResearchStart records the start of a research session
func (m *Metrics) RecordResearchStart(ctx context.Context) {
	m.researchRequestsTotal.Add(ctx, 1)
	m.activeSessionCount.Add(1)
}

// RecordResearchComplete records the end of a research session with its
// terminal phase
func (m *Metrics) RecordResearchComplete(ctx context.Context, duration time.Duration, status string) {
	m.researchDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("status", status),
		),
	)
	m.activeSessionCount.Add(-1)
}

// RecordRound records one completed tool-use round
func (m *Metrics) RecordRound(ctx context.Context) {
	m.researchRoundsTotal.Add(ctx, 1)
}

// RecordLLMRequest records an LLM request
func (m *Metrics) RecordLLMRequest(ctx context.Context, model string, promptTokens, completionTokens int64, duration time.Duration) {
	m.llmRequestsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("model", model),
		),
	)

	m.llmTokensUsedTotal.Add(ctx, promptTokens+completionTokens,
		metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("type", "total"),
		),
	)

	m.llmRequestDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("model", model),
		),
	)
}

// RecordToolExecution records a tool execution
func (m *Metrics) RecordToolExecution(ctx context.Context, toolName string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	m.toolExecutionsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", toolName),
			attribute.String("status", status),
		),
	)

	m.toolExecutionDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("tool", toolName),
			attribute.String("status", status),
		),
	)
}

// RecordCacheLookup records a tool cache hit or miss
func (m *Metrics) RecordCacheLookup(ctx context.Context, toolName string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookupsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", toolName),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordValidation records the issue counts from validating one answer
func (m *Metrics) RecordValidation(ctx context.Context, errorCount, warningCount int) {
	if errorCount > 0 {
		m.validationIssuesTotal.Add(ctx, int64(errorCount),
			metric.WithAttributes(attribute.String("severity", "error")),
		)
	}
	if warningCount > 0 {
		m.validationIssuesTotal.Add(ctx, int64(warningCount),
			metric.WithAttributes(attribute.String("severity", "warning")),
		)
	}
}

// GetActiveSessionCount returns the current number of in-flight sessions
func (m *Metrics) GetActiveSessionCount() int64 {
	return m.activeSessionCount.Load()
}
