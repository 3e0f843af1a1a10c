package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentWorkflowNode wraps an orchestrator node with observability
func (t *Telemetry) InstrumentWorkflowNode(ctx context.Context, nodeName string, phase string, fn func(context.Context) error) error {
	ctx, span := t.StartSpan(ctx, fmt.Sprintf("workflow.node.%s", nodeName),
		trace.WithAttributes(
			attribute.String("node.name", nodeName),
			attribute.String("phase", phase),
		),
	)
	defer span.End()

	startTime := time.Now()

	err := fn(ctx)

	duration := time.Since(startTime)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(
		attribute.String("status", status),
		attribute.Float64("duration.seconds", duration.Seconds()),
	)

	return err
}

// InstrumentToolExecution wraps a tool execution with observability
func (t *Telemetry) InstrumentToolExecution(ctx context.Context, toolName string, fn func(context.Context) error) error {
	ctx, span := t.StartSpan(ctx, fmt.Sprintf("tool.%s", toolName),
		trace.WithAttributes(
			attribute.String("tool.name", toolName),
		),
	)
	defer span.End()

	startTime := time.Now()

	err := fn(ctx)

	duration := time.Since(startTime)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(
		attribute.String("tool.status", status),
		attribute.Float64("tool.duration_seconds", duration.Seconds()),
	)

	return err
}

// StartResearchRequest starts a root span for a research session
func (t *Telemetry) StartResearchRequest(ctx context.Context, requestID, userID, query string) (context.Context, trace.Span) {
	ctx, span := t.StartSpan(ctx, "research.request",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("user.id", userID),
			attribute.Int("query.length", len(query)),
			attribute.String("research.topic", classifyQueryTopic(query)),
		),
	)
	return ctx, span
}

// classifyQueryTopic gives a coarse label for dashboards. It never affects
// research behavior.
func classifyQueryTopic(query string) string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "deadline") || strings.Contains(q, "hearing") || strings.Contains(q, "statute of limitations"):
		return "temporal"
	case strings.Contains(q, "motion"):
		return "motion"
	case strings.Contains(q, "cfr") || strings.Contains(q, "regulation"):
		return "regulation"
	case strings.Contains(q, "v.") || strings.Contains(q, "case") || strings.Contains(q, "opinion"):
		return "case_law"
	default:
		return "general"
	}
}
