package llm

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/counselflow/legal-research-agent/pkg/domain"
	"github.com/counselflow/legal-research-agent/pkg/observability"
)

// InstrumentedClient wraps a completion client with tracing and metrics
type InstrumentedClient struct {
	client    domain.CompletionClient
	telemetry *observability.Telemetry
	metrics   *observability.Metrics
	model     string
}

// NewInstrumentedClient creates an instrumented completion client
func NewInstrumentedClient(client domain.CompletionClient, telemetry *observability.Telemetry, model string) (*InstrumentedClient, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if telemetry == nil {
		return nil, fmt.Errorf("telemetry is required")
	}

	metrics, err := observability.NewMetrics(telemetry.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return &InstrumentedClient{
		client:    client,
		telemetry: telemetry,
		metrics:   metrics,
		model:     model,
	}, nil
}

// Complete performs an instrumented completion call
func (c *InstrumentedClient) Complete(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition, opts domain.CompletionOptions) (*domain.CompletionResponse, error) {
	ctx, span := c.telemetry.StartSpan(ctx, "llm.complete",
		trace.WithAttributes(
			attribute.String("llm.model", c.model),
			attribute.Float64("llm.temperature", opts.Temperature),
			attribute.Int("llm.max_tokens", opts.MaxTokens),
			attribute.Int("llm.message_count", len(messages)),
			attribute.Int("llm.tool_count", len(tools)),
		),
	)
	defer span.End()

	startTime := time.Now()

	response, err := c.client.Complete(ctx, messages, tools, opts)

	duration := time.Since(startTime)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(
		attribute.Int("llm.prompt_tokens", response.Usage.PromptTokens),
		attribute.Int("llm.completion_tokens", response.Usage.CompletionTokens),
		attribute.Int("llm.tool_calls", len(response.ToolCalls)),
		attribute.String("llm.finish_reason", response.FinishReason),
	)

	c.metrics.RecordLLMRequest(ctx, c.model,
		int64(response.Usage.PromptTokens),
		int64(response.Usage.CompletionTokens),
		duration,
	)

	return response, nil
}
