package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
	"github.com/counselflow/legal-research-agent/pkg/temporal"
)

// Clock supplies the current time, swappable by tests. Every temporal tool
// answers from this clock, never from a model-supplied "current date".
type Clock func() time.Time

// GetCurrentDateTool reports the real current date
type GetCurrentDateTool struct {
	now Clock
}

// NewGetCurrentDateTool creates the current-date tool
func NewGetCurrentDateTool(now Clock) *GetCurrentDateTool {
	if now == nil {
		now = time.Now
	}
	return &GetCurrentDateTool{now: now}
}

// Name returns the tool name
func (t *GetCurrentDateTool) Name() string { return "get_current_date" }

// Description returns the tool description
func (t *GetCurrentDateTool) Description() string {
	return "Get the actual current date. Always call this before reasoning about deadlines or elapsed time. Never assume the current date."
}

// Schema returns the tool's parameter schema
func (t *GetCurrentDateTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Type:       "object",
		Properties: map[string]domain.SchemaProperty{},
	}
}

// Execute reports the current date
func (t *GetCurrentDateTool) Execute(_ context.Context, _ map[string]interface{}) (string, error) {
	now := t.now()
	return fmt.Sprintf("Current date: %s (%s)", now.Format("2006-01-02"), now.Format("Monday, January 2, 2006")), nil
}

// CheckDeadlineStatusTool classifies one event date against the current
// date
type CheckDeadlineStatusTool struct {
	now Clock
}

// NewCheckDeadlineStatusTool creates the deadline status tool
func NewCheckDeadlineStatusTool(now Clock) *CheckDeadlineStatusTool {
	if now == nil {
		now = time.Now
	}
	return &CheckDeadlineStatusTool{now: now}
}

// Name returns the tool name
func (t *CheckDeadlineStatusTool) Name() string { return "check_deadline_status" }

// Description returns the tool description
func (t *CheckDeadlineStatusTool) Description() string {
	return "Check whether an event date has passed, is today, or is upcoming, with urgency and day count. Use before giving any deadline advice."
}

// Schema returns the tool's parameter schema
func (t *CheckDeadlineStatusTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Type: "object",
		Properties: map[string]domain.SchemaProperty{
			"date": {
				Type:        "string",
				Description: "Event date, YYYY-MM-DD or 'June 1, 2025'",
			},
			"event_name": {
				Type:        "string",
				Description: "What the date is, e.g. 'Discovery Cutoff'",
			},
		},
		Required: []string{"date"},
	}
}

// Execute classifies the event date
func (t *CheckDeadlineStatusTool) Execute(_ context.Context, params map[string]interface{}) (string, error) {
	dateStr, err := stringParam(params, "date")
	if err != nil {
		return "", err
	}
	event := optionalStringParam(params, "event_name", "event")

	date, err := temporal.ParseDate(dateStr)
	if err != nil {
		return "", err
	}

	info := temporal.Classify(event, date, t.now())
	return fmt.Sprintf("Status: %s\nDate: %s\nDays from today: %d\nUrgency: %s\n\n%s",
		info.Status, info.Date.Format("2006-01-02"), info.DaysUntil, info.Urgency, info.Guidance), nil
}

// ValidateTimelineTool partitions a set of case events by deadline status
type ValidateTimelineTool struct {
	now Clock
}

// NewValidateTimelineTool creates the timeline validation tool
func NewValidateTimelineTool(now Clock) *ValidateTimelineTool {
	if now == nil {
		now = time.Now
	}
	return &ValidateTimelineTool{now: now}
}

// Name returns the tool name
func (t *ValidateTimelineTool) Name() string { return "validate_case_timeline" }

// Description returns the tool description
func (t *ValidateTimelineTool) Description() string {
	return "Partition a set of case events into passed, today and upcoming against the actual current date. Unparsable dates are reported as errors."
}

// Schema returns the tool's parameter schema
func (t *ValidateTimelineTool) Schema() domain.ToolSchema {
	return eventListSchema()
}

// Execute validates the timeline
func (t *ValidateTimelineTool) Execute(_ context.Context, params map[string]interface{}) (string, error) {
	events, err := eventsParam(params)
	if err != nil {
		return "", err
	}

	report := temporal.BuildTimeline(events, t.now())

	out := fmt.Sprintf("Passed: %d, Today: %d, Upcoming: %d\n", len(report.Passed), len(report.Today), len(report.Upcoming))
	for _, info := range report.Today {
		out += fmt.Sprintf("- TODAY: %s\n", info.Event)
	}
	for _, info := range report.Upcoming {
		out += fmt.Sprintf("- UPCOMING (%d days, %s): %s\n", info.DaysUntil, info.Urgency, info.Event)
	}
	for _, info := range report.Passed {
		out += fmt.Sprintf("- PASSED (%d days ago): %s\n", -info.DaysUntil, info.Event)
	}
	for _, msg := range report.Errors {
		out += fmt.Sprintf("- ERROR: %s\n", msg)
	}
	return out, nil
}

// GenerateTimelineTool renders a markdown case timeline
type GenerateTimelineTool struct {
	now Clock
}

// NewGenerateTimelineTool creates the timeline generation tool
func NewGenerateTimelineTool(now Clock) *GenerateTimelineTool {
	if now == nil {
		now = time.Now
	}
	return &GenerateTimelineTool{now: now}
}

// Name returns the tool name
func (t *GenerateTimelineTool) Name() string { return "generate_case_timeline" }

// Description returns the tool description
func (t *GenerateTimelineTool) Description() string {
	return "Generate a markdown timeline of case events grouped by status, with per-event guidance."
}

// Schema returns the tool's parameter schema
func (t *GenerateTimelineTool) Schema() domain.ToolSchema {
	return eventListSchema()
}

// Execute renders the timeline
func (t *GenerateTimelineTool) Execute(_ context.Context, params map[string]interface{}) (string, error) {
	events, err := eventsParam(params)
	if err != nil {
		return "", err
	}
	return temporal.RenderTimeline(temporal.BuildTimeline(events, t.now())), nil
}

func eventListSchema() domain.ToolSchema {
	return domain.ToolSchema{
		Type: "object",
		Properties: map[string]domain.SchemaProperty{
			"events": {
				Type:        "array",
				Description: `List of {"name": "...", "date": "YYYY-MM-DD"} objects`,
			},
		},
		Required: []string{"events"},
	}
}

func eventsParam(params map[string]interface{}) ([]temporal.Event, error) {
	var events []temporal.Event
	if err := decodeParam(params, "events", &events); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("events must contain at least one entry")
	}
	return events, nil
}
