package tools

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/counselflow/legal-research-agent/pkg/cache"
	"github.com/counselflow/legal-research-agent/pkg/domain"
	"github.com/counselflow/legal-research-agent/pkg/observability"
)

// Cacheable is implemented by tools whose results should be memoized. The
// TTL may depend on the value, so a "not found" result can expire sooner
// than a positive one.
type Cacheable interface {
	CacheTTL(value string) time.Duration
}

// Dispatcher executes model-requested tool calls. Failures of any kind are
// converted into error-string results so the model can see them and adapt;
// a tool call never aborts the research session. It implements
// domain.ToolDispatcher.
type Dispatcher struct {
	registry  domain.ToolRegistry
	cache     domain.ToolCache
	flight    singleflight.Group
	telemetry *observability.Telemetry
	metrics   *observability.Metrics
	logger    *observability.StructuredLogger
}

// NewDispatcher creates a dispatcher over the given registry and cache
func NewDispatcher(registry domain.ToolRegistry, cache domain.ToolCache) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		cache:    cache,
	}
}

// SetTelemetry attaches span instrumentation to the dispatcher
func (d *Dispatcher) SetTelemetry(t *observability.Telemetry) {
	d.telemetry = t
}

// SetMetrics attaches metrics recording to the dispatcher
func (d *Dispatcher) SetMetrics(m *observability.Metrics) {
	d.metrics = m
}

// SetLogger attaches a structured logger to the dispatcher
func (d *Dispatcher) SetLogger(l *observability.StructuredLogger) {
	d.logger = l
}

// Definitions returns the registered tool definitions
func (d *Dispatcher) Definitions() []domain.ToolDefinition {
	return d.registry.Definitions()
}

// Execute runs one tool call. The cache is consulted first for cacheable
// tools; on a miss the tool runs and its result is stored with the
// tool-specific TTL. Unknown tool names and execution failures come back as
// error-string results.
func (d *Dispatcher) Execute(ctx context.Context, call domain.ToolCall) domain.ToolResult {
	start := time.Now()

	var result domain.ToolResult
	if d.telemetry != nil {
		_ = d.telemetry.InstrumentToolExecution(ctx, call.Name, func(ctx context.Context) error {
			result = d.execute(ctx, call)
			if result.IsError {
				return fmt.Errorf("%s", result.Content)
			}
			return nil
		})
	} else {
		result = d.execute(ctx, call)
	}
	result.CallID = call.ID
	result.ToolName = call.Name
	result.Duration = time.Since(start)

	if d.metrics != nil {
		d.metrics.RecordToolExecution(ctx, call.Name, result.Duration, !result.IsError)
	}
	if d.logger != nil {
		d.logger.Debug(ctx, "tool executed", map[string]interface{}{
			"tool":     call.Name,
			"cached":   result.Cached,
			"is_error": result.IsError,
			"duration": result.Duration.String(),
		})
	}

	return result
}

func (d *Dispatcher) execute(ctx context.Context, call domain.ToolCall) (result domain.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.ToolResult{
				Content: fmt.Sprintf("Error executing tool %q: %v", call.Name, r),
				IsError: true,
			}
		}
	}()

	tool, err := d.registry.Get(call.Name)
	if err != nil {
		return domain.ToolResult{
			Content: fmt.Sprintf("Error: unknown tool %q", call.Name),
			IsError: true,
		}
	}

	cacheable, wantsCache := tool.(Cacheable)
	if wantsCache && d.cache != nil {
		if value, found := d.cache.Get(call.Name, call.Params); found {
			if d.metrics != nil {
				d.metrics.RecordCacheLookup(ctx, call.Name, true)
			}
			return domain.ToolResult{Content: value, Cached: true}
		}
		if d.metrics != nil {
			d.metrics.RecordCacheLookup(ctx, call.Name, false)
		}

		// Sessions missing on the same key at the same time share one
		// billed call; the first populates the cache for all of them.
		value, err, shared := d.flight.Do(cache.Key(call.Name, call.Params), func() (interface{}, error) {
			v, execErr := tool.Execute(ctx, call.Params)
			if execErr != nil {
				return nil, execErr
			}
			d.cache.Put(call.Name, call.Params, v, cacheable.CacheTTL(v))
			return v, nil
		})
		if err != nil {
			return domain.ToolResult{
				Content: fmt.Sprintf("Error executing tool %q: %v", call.Name, err),
				IsError: true,
			}
		}
		return domain.ToolResult{Content: value.(string), Cached: shared}
	}

	value, err := tool.Execute(ctx, call.Params)
	if err != nil {
		return domain.ToolResult{
			Content: fmt.Sprintf("Error executing tool %q: %v", call.Name, err),
			IsError: true,
		}
	}

	return domain.ToolResult{Content: value}
}
