package domain

import (
	"time"
)

// ResearchPhase represents the current state of the research orchestrator
type ResearchPhase string

const (
	PhaseInit       ResearchPhase = "init"
	PhaseSearching  ResearchPhase = "searching"
	PhaseToolLoop   ResearchPhase = "tool_loop"
	PhaseValidating ResearchPhase = "validating"
	PhaseDone       ResearchPhase = "done"
	PhaseFailed     ResearchPhase = "failed"
)

// Terminal reports whether the phase is a terminal state
func (p ResearchPhase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// ResearchQuery represents one inbound legal research request. It is
// immutable for the duration of a research session.
type ResearchQuery struct {
	ID            string                 `json:"id"`
	Text          string                 `json:"text"`
	Jurisdiction  string                 `json:"jurisdiction,omitempty"`
	EffectiveDate *time.Time             `json:"effective_date,omitempty"`
	PriorTurns    []Message              `json:"prior_turns,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Message represents a message in the research conversation
type Message struct {
	Role      string     `json:"role"` // "system", "user", "assistant", "tool"
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"` // set on tool result messages
	Timestamp time.Time  `json:"timestamp"`
}

// ToolCall represents a tool invocation requested by the model
type ToolCall struct {
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params"`
}

// ToolResult is the outcome of dispatching a single tool call. Failures are
// carried as content with IsError set, never as a Go error, so the model can
// see the failure and adapt its next request.
type ToolResult struct {
	CallID   string        `json:"call_id,omitempty"`
	ToolName string        `json:"tool_name"`
	Content  string        `json:"content"`
	IsError  bool          `json:"is_error,omitempty"`
	Cached   bool          `json:"cached,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// ToolDefinition declares a callable tool to the completion capability
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schema      ToolSchema `json:"schema"`
}

// ToolSchema defines the parameter schema for a tool
type ToolSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// SchemaProperty defines a property in a tool schema
type SchemaProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

// Opinion represents a judicial opinion returned by the case-law search
// service
type Opinion struct {
	Title    string    `json:"title"`
	Citation string    `json:"citation"`
	Court    string    `json:"court"`
	Date     time.Time `json:"date"`
	Summary  string    `json:"summary,omitempty"`
	URL      string    `json:"url,omitempty"`
}

// ConfidenceLevel labels how much weight a piece of evidence or a final
// answer deserves
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// Evidence is a single item of legal authority accumulated during a session
type Evidence struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"` // "case_law", "regulation", "deep_research"
	Title      string          `json:"title"`
	Citation   string          `json:"citation,omitempty"`
	Content    string          `json:"content"`
	URL        string          `json:"url,omitempty"`
	Confidence ConfidenceLevel `json:"confidence"`
	Timestamp  time.Time       `json:"timestamp"`
}

// DeadlineStatus classifies an event date against the current date
type DeadlineStatus string

const (
	DeadlinePassed   DeadlineStatus = "PASSED"
	DeadlineToday    DeadlineStatus = "TODAY"
	DeadlineUpcoming DeadlineStatus = "UPCOMING"
)

// DeadlineUrgency ranks how soon an upcoming deadline needs attention.
// Urgency only applies to UPCOMING deadlines.
type DeadlineUrgency string

const (
	UrgencyCritical DeadlineUrgency = "CRITICAL" // under 48 hours
	UrgencyHigh     DeadlineUrgency = "HIGH"     // under one week
	UrgencyMedium   DeadlineUrgency = "MEDIUM"   // under one month
	UrgencyLow      DeadlineUrgency = "LOW"
	UrgencyNone     DeadlineUrgency = "NONE" // passed or today
)

// DeadlineInfo describes one case event date relative to the real system
// clock. DaysUntil is signed: negative means the event already occurred.
type DeadlineInfo struct {
	Event     string          `json:"event"`
	Date      time.Time       `json:"date"`
	Status    DeadlineStatus  `json:"status"`
	Urgency   DeadlineUrgency `json:"urgency"`
	DaysUntil int             `json:"days_until"`
	Guidance  string          `json:"guidance,omitempty"`
}

// TimelineReport partitions a set of case events by deadline status.
// Unparsable event dates are surfaced in Errors rather than dropped.
type TimelineReport struct {
	Passed   []DeadlineInfo `json:"passed"`
	Today    []DeadlineInfo `json:"today"`
	Upcoming []DeadlineInfo `json:"upcoming"` // ascending by days until
	Errors   []string       `json:"errors,omitempty"`
}

// ValidationResult reports temporal and citation checks against a model
// answer. Errors are hard contradictions; warnings are soft concerns that
// annotate but never block the response.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// CitationVerification is the outcome of resolving a citation string against
// the case-law service. When Found is false all other fields stay empty:
// absence is reported, never guessed.
type CitationVerification struct {
	Citation string `json:"citation"`
	Found    bool   `json:"found"`
	CaseName string `json:"case_name,omitempty"`
	Court    string `json:"court,omitempty"`
	Date     string `json:"date,omitempty"`
	URL      string `json:"url,omitempty"`
}

// GapCategory names a class of missing legal authority
type GapCategory string

const (
	GapStatutory      GapCategory = "statutory"
	GapCaseLaw        GapCategory = "case_law"
	GapProcedural     GapCategory = "procedural"
	GapJurisdictional GapCategory = "jurisdictional"
	GapTemporal       GapCategory = "temporal"
	GapPractical      GapCategory = "practical"
)

// KnowledgeGap describes a missing authority category in the current
// evidence set
type KnowledgeGap struct {
	Category    GapCategory `json:"category"`
	Description string      `json:"description"`
}

// CitedAuthority is one authority referenced in a final answer, with its
// verification status
type CitedAuthority struct {
	Citation string `json:"citation"`
	CaseName string `json:"case_name,omitempty"`
	Verified bool   `json:"verified"`
	URL      string `json:"url,omitempty"`
}

// ResearchFinding is the terminal artifact returned to the caller
type ResearchFinding struct {
	ID             string           `json:"id"`
	QueryID        string           `json:"query_id"`
	Answer         string           `json:"answer"`
	Authorities    []CitedAuthority `json:"authorities,omitempty"`
	Confidence     ConfidenceLevel  `json:"confidence"`
	Gaps           []KnowledgeGap   `json:"gaps,omitempty"`
	Validation     ValidationResult `json:"validation"`
	RequiresReview bool             `json:"requires_review"`
	Rounds         int              `json:"rounds"`
	TokensUsed     int              `json:"tokens_used"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// FailureKind distinguishes the user-visible failure classes
type FailureKind string

const (
	FailureNoResults          FailureKind = "no_results"
	FailureServiceUnavailable FailureKind = "service_unavailable"
)

// ResearchError is the structured error object returned on failure paths
type ResearchError struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Error implements the error interface
func (e *ResearchError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// ProgressEventType classifies a streamed progress event
type ProgressEventType string

const (
	EventProgress ProgressEventType = "progress"
	EventComplete ProgressEventType = "complete"
	EventError    ProgressEventType = "error"
)

// ProgressStep names the coarse step a progress event belongs to
type ProgressStep string

const (
	StepQueryAnalysis      ProgressStep = "query_analysis"
	StepDatabaseSearch     ProgressStep = "database_search"
	StepAIAnalysis         ProgressStep = "ai_analysis"
	StepResponseGeneration ProgressStep = "response_generation"
)

// ProgressEvent is emitted as a research session advances
type ProgressEvent struct {
	Type    ProgressEventType `json:"event_type"`
	Step    ProgressStep      `json:"step_type"`
	Message string            `json:"message"`
	Percent int               `json:"progress_percent"`
}

// TokenUsage tracks token consumption across completion calls
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
