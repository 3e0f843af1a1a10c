// Package workflow drives one research session through its phases: parse
// and search, the model tool-use loop, answer validation, and synthesis of
// the final finding. A session runs strictly sequentially; concurrency
// exists only across sessions.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/counselflow/legal-research-agent/pkg/domain"
	"github.com/counselflow/legal-research-agent/pkg/gaps"
	"github.com/counselflow/legal-research-agent/pkg/observability"
	"github.com/counselflow/legal-research-agent/pkg/queryparser"
	"github.com/counselflow/legal-research-agent/pkg/state"
	"github.com/counselflow/legal-research-agent/pkg/validation"
)

// Config holds orchestrator configuration
type Config struct {
	// MaxRounds caps the tool-calling loop per session. The loop always
	// terminates at this bound regardless of model behavior.
	MaxRounds int `json:"max_rounds" yaml:"max_rounds"`

	// CallTimeout bounds each completion call
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`

	// SessionTimeout bounds a whole research session
	SessionTimeout time.Duration `json:"session_timeout" yaml:"session_timeout"`

	// Model is the completion model name, recorded in telemetry
	Model string `json:"model" yaml:"model"`
}

// DefaultConfig returns orchestrator defaults
func DefaultConfig() *Config {
	return &Config{
		MaxRounds:      10,
		CallTimeout:    2 * time.Minute,
		SessionTimeout: 10 * time.Minute,
		Model:          "unknown",
	}
}

// ProgressFunc receives progress events as a session advances. Callbacks
// run on the session goroutine and must not block.
type ProgressFunc func(domain.ProgressEvent)

// Orchestrator owns the research state machine
type Orchestrator struct {
	config     *Config
	completion domain.CompletionClient
	dispatcher domain.ToolDispatcher
	caselaw    domain.CaseLawService
	verifier   domain.CitationVerifier
	telemetry  *observability.Telemetry
	metrics    *observability.Metrics
	logger     *observability.StructuredLogger
	now        func() time.Time
}

// NewOrchestrator creates a research orchestrator
func NewOrchestrator(cfg *Config, completion domain.CompletionClient, dispatcher domain.ToolDispatcher, caselaw domain.CaseLawService, verifier domain.CitationVerifier) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 10
	}
	if completion == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("tool dispatcher is required")
	}
	if caselaw == nil {
		return nil, fmt.Errorf("case-law service is required")
	}

	return &Orchestrator{
		config:     cfg,
		completion: completion,
		dispatcher: dispatcher,
		caselaw:    caselaw,
		verifier:   verifier,
		now:        time.Now,
	}, nil
}

// SetTelemetry attaches tracing, metrics and logging
func (o *Orchestrator) SetTelemetry(telemetry *observability.Telemetry) error {
	if telemetry == nil {
		return nil
	}
	metrics, err := observability.NewMetrics(telemetry.Meter())
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	o.telemetry = telemetry
	o.metrics = metrics
	o.logger = observability.NewStructuredLogger("orchestrator")
	return nil
}

// SetClock overrides the clock, used by tests
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Run executes one research session to completion. The returned finding is
// present even when validation found hard errors; those annotate the
// finding and flag it for manual review instead of suppressing it. The
// returned error is non-nil only for session-fatal failures, and is then a
// *domain.ResearchError.
func (o *Orchestrator) Run(ctx context.Context, sess *state.ResearchState, progress ProgressFunc) (*domain.ResearchFinding, error) {
	query := sess.Query()

	if o.telemetry != nil {
		var span trace.Span
		ctx, span = o.telemetry.StartResearchRequest(ctx, query.ID, "caller", query.Text)
		defer span.End()
	}
	if o.metrics != nil {
		o.metrics.RecordResearchStart(ctx)
		start := o.now()
		defer func() {
			o.metrics.RecordResearchComplete(ctx, o.now().Sub(start), string(sess.Phase()))
		}()
	}

	if o.config.SessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.SessionTimeout)
		defer cancel()
	}

	finding, err := o.run(ctx, sess, progress)
	if err != nil {
		sess.SetPhase(domain.PhaseFailed)
		sess.SetError(err)
		emit(progress, domain.ProgressEvent{
			Type:    domain.EventError,
			Step:    domain.StepResponseGeneration,
			Message: err.Error(),
			Percent: 100,
		})
		return nil, err
	}

	sess.SetFinding(finding)
	sess.SetPhase(domain.PhaseDone)
	emit(progress, domain.ProgressEvent{
		Type:    domain.EventComplete,
		Step:    domain.StepResponseGeneration,
		Message: "research complete",
		Percent: 100,
	})
	return finding, nil
}

func (o *Orchestrator) run(ctx context.Context, sess *state.ResearchState, progress ProgressFunc) (*domain.ResearchFinding, error) {
	if err := o.searchNode(ctx, sess, progress); err != nil {
		return nil, err
	}

	// When the initial search already produced sufficient evidence, skip
	// the tool loop and go straight to a single synthesis call.
	var answer string
	var err error
	if gaps.NeedsDeeperResearch(sess.Evidence(), sess.Query()) {
		answer, err = o.toolLoopNode(ctx, sess, progress)
		if err != nil {
			return nil, err
		}
		o.deepenNode(ctx, sess)
	} else {
		answer, err = o.synthesisNode(ctx, sess, progress)
		if err != nil {
			return nil, err
		}
	}

	return o.validateNode(ctx, sess, answer, progress)
}

// searchNode parses the query, runs the initial database search, and seeds
// the evidence set. Gap analysis then decides whether a deep pass is
// requested from the model in the tool loop.
func (o *Orchestrator) searchNode(ctx context.Context, sess *state.ResearchState, progress ProgressFunc) error {
	if o.telemetry != nil {
		return o.telemetry.InstrumentWorkflowNode(ctx, "search", string(domain.PhaseSearching), func(ctx context.Context) error {
			return o.searchNodeImpl(ctx, sess, progress)
		})
	}
	return o.searchNodeImpl(ctx, sess, progress)
}

func (o *Orchestrator) searchNodeImpl(ctx context.Context, sess *state.ResearchState, progress ProgressFunc) error {
	sess.SetPhase(domain.PhaseSearching)
	query := sess.Query()

	emit(progress, domain.ProgressEvent{
		Type:    domain.EventProgress,
		Step:    domain.StepQueryAnalysis,
		Message: "analyzing query",
		Percent: 5,
	})

	parsed := queryparser.Parse(query.Text)

	emit(progress, domain.ProgressEvent{
		Type:    domain.EventProgress,
		Step:    domain.StepDatabaseSearch,
		Message: "searching case law",
		Percent: 15,
	})

	opinions, err := o.searchCaseLaw(ctx, query.Text, query)
	if err != nil {
		// The initial search is advisory; the model can retry through the
		// search tool.
		if o.logger != nil {
			o.logger.Warn(ctx, "initial search failed", map[string]interface{}{"error": err.Error()})
		}
	}

	// Explicit boolean operators in the query become a literal-match
	// filter over what the external search returned. Plain-language
	// queries are left to the service's own relevance ranking.
	match := func(domain.Opinion) bool { return true }
	if len(parsed.MustNotTerms) > 0 || len(parsed.ShouldTerms) > 0 {
		predicate := parsed.FilterPredicate("title", "summary")
		match = func(op domain.Opinion) bool {
			return predicate(map[string]string{"title": op.Title, "summary": op.Summary})
		}
	}
	for _, op := range opinions {
		if !match(op) {
			continue
		}
		sess.AddEvidence(opinionEvidence(op, "case_law", domain.ConfidenceHigh, o.now()))
	}

	return nil
}

// searchCaseLaw runs one search against the external service, scoped to the
// query's effective date when set
func (o *Orchestrator) searchCaseLaw(ctx context.Context, text string, query domain.ResearchQuery) ([]domain.Opinion, error) {
	var from, to time.Time
	if query.EffectiveDate != nil {
		to = *query.EffectiveDate
	}
	return o.caselaw.SearchOpinions(ctx, text, query.Jurisdiction, from, to)
}

func opinionEvidence(op domain.Opinion, source string, confidence domain.ConfidenceLevel, now time.Time) domain.Evidence {
	return domain.Evidence{
		ID:         uuid.NewString(),
		Source:     source,
		Title:      op.Title,
		Citation:   op.Citation,
		Content:    op.Summary,
		URL:        op.URL,
		Confidence: confidence,
		Timestamp:  now,
	}
}

// toolLoopNode runs the bounded model tool-use loop and returns the final
// answer text
func (o *Orchestrator) toolLoopNode(ctx context.Context, sess *state.ResearchState, progress ProgressFunc) (string, error) {
	if o.telemetry != nil {
		var answer string
		err := o.telemetry.InstrumentWorkflowNode(ctx, "tool_loop", string(domain.PhaseToolLoop), func(ctx context.Context) error {
			var innerErr error
			answer, innerErr = o.toolLoopImpl(ctx, sess, progress)
			return innerErr
		})
		return answer, err
	}
	return o.toolLoopImpl(ctx, sess, progress)
}

func (o *Orchestrator) toolLoopImpl(ctx context.Context, sess *state.ResearchState, progress ProgressFunc) (string, error) {
	sess.SetPhase(domain.PhaseToolLoop)
	query := sess.Query()

	// Prior conversation turns come first so the current question is the
	// last thing the model reads.
	for _, turn := range query.PriorTurns {
		sess.AddMessage(turn)
	}
	sess.AddMessage(domain.Message{Role: "user", Content: o.buildUserPrompt(sess, true)})

	definitions := o.dispatcher.Definitions()
	lastText := ""

	for round := 1; ; round++ {
		if round > o.config.MaxRounds {
			if o.logger != nil {
				o.logger.Warn(ctx, "round cap reached", map[string]interface{}{
					"query_id": query.ID,
					"rounds":   o.config.MaxRounds,
				})
			}
			break
		}

		emit(progress, domain.ProgressEvent{
			Type:    domain.EventProgress,
			Step:    domain.StepAIAnalysis,
			Message: fmt.Sprintf("analysis round %d", round),
			Percent: 20 + min(60, round*60/o.config.MaxRounds),
		})

		response, err := o.complete(ctx, sess.Messages(), definitions)
		if err != nil {
			return "", &domain.ResearchError{
				Kind:    domain.FailureServiceUnavailable,
				Message: fmt.Sprintf("research service unavailable: %v", err),
			}
		}

		sess.IncrementRound()
		sess.AddTokens(response.Usage)
		if o.metrics != nil {
			o.metrics.RecordRound(ctx)
		}

		sess.AddMessage(domain.Message{
			Role:      "assistant",
			Content:   response.Text,
			ToolCalls: response.ToolCalls,
		})
		if response.Text != "" {
			lastText = response.Text
		}

		if len(response.ToolCalls) == 0 {
			break
		}

		// Tool calls run sequentially: each round's requests depend on the
		// model having seen the previous round's results.
		for _, call := range response.ToolCalls {
			result := o.dispatcher.Execute(ctx, call)
			sess.AddMessage(domain.Message{
				Role:     "tool",
				ToolName: result.ToolName,
				Content:  result.Content,
			})
			o.collectEvidence(sess, call, result)
		}
	}

	if strings.TrimSpace(lastText) == "" {
		if len(sess.Evidence()) == 0 {
			return "", &domain.ResearchError{
				Kind:    domain.FailureNoResults,
				Message: "no results found for this query",
			}
		}
		lastText = o.synthesizeFromEvidence(sess)
	}

	return lastText, nil
}

// synthesisNode asks the model for an answer over the evidence already in
// hand, with no tools on offer. Reached only when gap analysis found the
// initial search sufficient.
func (o *Orchestrator) synthesisNode(ctx context.Context, sess *state.ResearchState, progress ProgressFunc) (string, error) {
	if o.telemetry != nil {
		var answer string
		err := o.telemetry.InstrumentWorkflowNode(ctx, "synthesize", string(domain.PhaseToolLoop), func(ctx context.Context) error {
			var innerErr error
			answer, innerErr = o.synthesisImpl(ctx, sess, progress)
			return innerErr
		})
		return answer, err
	}
	return o.synthesisImpl(ctx, sess, progress)
}

func (o *Orchestrator) synthesisImpl(ctx context.Context, sess *state.ResearchState, progress ProgressFunc) (string, error) {
	sess.SetPhase(domain.PhaseToolLoop)
	query := sess.Query()

	for _, turn := range query.PriorTurns {
		sess.AddMessage(turn)
	}
	sess.AddMessage(domain.Message{Role: "user", Content: o.buildUserPrompt(sess, false)})

	emit(progress, domain.ProgressEvent{
		Type:    domain.EventProgress,
		Step:    domain.StepAIAnalysis,
		Message: "synthesizing answer",
		Percent: 50,
	})

	response, err := o.complete(ctx, sess.Messages(), nil)
	if err != nil {
		return "", &domain.ResearchError{
			Kind:    domain.FailureServiceUnavailable,
			Message: fmt.Sprintf("research service unavailable: %v", err),
		}
	}

	sess.IncrementRound()
	sess.AddTokens(response.Usage)
	if o.metrics != nil {
		o.metrics.RecordRound(ctx)
	}
	sess.AddMessage(domain.Message{Role: "assistant", Content: response.Text})

	if strings.TrimSpace(response.Text) == "" {
		return o.synthesizeFromEvidence(sess), nil
	}
	return response.Text, nil
}

// complete issues one completion call under the per-call timeout
func (o *Orchestrator) complete(ctx context.Context, messages []domain.Message, definitions []domain.ToolDefinition) (*domain.CompletionResponse, error) {
	if o.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.CallTimeout)
		defer cancel()
	}
	return o.completion.Complete(ctx, messages, definitions, domain.CompletionOptions{})
}

// collectEvidence lifts successful lookups of legal authority into the
// evidence set so gap analysis sees what the model has gathered
func (o *Orchestrator) collectEvidence(sess *state.ResearchState, call domain.ToolCall, result domain.ToolResult) {
	if result.IsError {
		return
	}

	var source string
	switch call.Name {
	case "search_case_law":
		source = "case_law"
	case "get_cfr_text":
		source = "regulation"
	default:
		return
	}
	if strings.HasPrefix(result.Content, "No cases found") {
		return
	}

	sess.AddEvidence(domain.Evidence{
		ID:         uuid.NewString(),
		Source:     source,
		Title:      fmt.Sprintf("%s result", call.Name),
		Content:    result.Content,
		Confidence: domain.ConfidenceHigh,
		Timestamp:  o.now(),
	})
}

// maxFollowUpSearches bounds the deterministic deepening pass
const maxFollowUpSearches = 3

// deepenNode runs the deterministic gap-driven deepening pass: when the
// evidence set is still thin after the tool loop, follow-up queries derived
// from the identified gaps are searched directly and merged in at low
// confidence. Failures here never fail the session.
func (o *Orchestrator) deepenNode(ctx context.Context, sess *state.ResearchState) {
	query := sess.Query()
	evidence := sess.Evidence()
	if !gaps.NeedsDeeperResearch(evidence, query) {
		return
	}

	nodeImpl := func(ctx context.Context) error {
		followUps := gaps.GenerateFollowUpQueries(query, gaps.IdentifyGaps(query, evidence))
		if len(followUps) > maxFollowUpSearches {
			followUps = followUps[:maxFollowUpSearches]
		}

		var extra []domain.Evidence
		for _, followUp := range followUps {
			opinions, err := o.searchCaseLaw(ctx, followUp, query)
			if err != nil {
				if o.logger != nil {
					o.logger.Warn(ctx, "follow-up search failed", map[string]interface{}{
						"query": followUp,
						"error": err.Error(),
					})
				}
				continue
			}
			for _, op := range opinions {
				extra = append(extra, opinionEvidence(op, "deep_research", domain.ConfidenceLow, o.now()))
			}
		}

		if len(extra) > 0 {
			sess.SetEvidence(gaps.MergeFindings(evidence, extra))
		}
		return nil
	}

	if o.telemetry != nil {
		_ = o.telemetry.InstrumentWorkflowNode(ctx, "deepen", string(domain.PhaseSearching), nodeImpl)
		return
	}
	_ = nodeImpl(ctx)
}

// validateNode runs temporal and citation validation over the answer and
// assembles the finding. Hard errors never suppress the answer; they flag
// it for manual review.
func (o *Orchestrator) validateNode(ctx context.Context, sess *state.ResearchState, answer string, progress ProgressFunc) (*domain.ResearchFinding, error) {
	if o.telemetry != nil {
		var finding *domain.ResearchFinding
		err := o.telemetry.InstrumentWorkflowNode(ctx, "validate", string(domain.PhaseValidating), func(ctx context.Context) error {
			var innerErr error
			finding, innerErr = o.validateImpl(ctx, sess, answer, progress)
			return innerErr
		})
		return finding, err
	}
	return o.validateImpl(ctx, sess, answer, progress)
}

func (o *Orchestrator) validateImpl(ctx context.Context, sess *state.ResearchState, answer string, progress ProgressFunc) (*domain.ResearchFinding, error) {
	sess.SetPhase(domain.PhaseValidating)

	emit(progress, domain.ProgressEvent{
		Type:    domain.EventProgress,
		Step:    domain.StepResponseGeneration,
		Message: "validating answer",
		Percent: 90,
	})

	result := validation.ValidateTemporalConsistency(answer, o.now())

	authorities := o.verifyAuthorities(ctx, answer)
	for _, auth := range authorities {
		if !auth.Verified {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("citation %q could not be verified", auth.Citation))
		}
	}

	if o.metrics != nil {
		o.metrics.RecordValidation(ctx, len(result.Errors), len(result.Warnings))
	}

	query := sess.Query()
	knowledgeGaps := gaps.IdentifyGaps(query, sess.Evidence())

	finding := &domain.ResearchFinding{
		ID:             uuid.NewString(),
		QueryID:        query.ID,
		Answer:         answer,
		Authorities:    authorities,
		Confidence:     o.confidenceFor(sess, result, authorities),
		Gaps:           knowledgeGaps,
		Validation:     result,
		RequiresReview: len(result.Errors) > 0,
		Rounds:         sess.Rounds(),
		TokensUsed:     sess.TokensUsed(),
		GeneratedAt:    o.now(),
	}
	return finding, nil
}

// verifyAuthorities extracts citations from the answer and verifies each
// one. Verification failures downgrade, they never remove the citation
// from the report.
func (o *Orchestrator) verifyAuthorities(ctx context.Context, answer string) []domain.CitedAuthority {
	if o.verifier == nil {
		return nil
	}

	var authorities []domain.CitedAuthority
	for _, citation := range validation.ExtractCitations(answer) {
		auth := domain.CitedAuthority{Citation: citation}
		if v, err := o.verifier.VerifyCitation(ctx, citation, ""); err == nil && v.Found {
			auth.Verified = true
			auth.CaseName = v.CaseName
			auth.URL = v.URL
		}
		authorities = append(authorities, auth)
	}
	return authorities
}

// confidenceFor derives the confidence label from validation outcome,
// citation verification, and evidence depth
func (o *Orchestrator) confidenceFor(sess *state.ResearchState, result domain.ValidationResult, authorities []domain.CitedAuthority) domain.ConfidenceLevel {
	if len(result.Errors) > 0 {
		return domain.ConfidenceLow
	}

	unverified := 0
	for _, a := range authorities {
		if !a.Verified {
			unverified++
		}
	}
	if unverified > 0 || len(result.Warnings) > 0 {
		return domain.ConfidenceMedium
	}
	if gaps.NeedsDeeperResearch(sess.Evidence(), sess.Query()) {
		return domain.ConfidenceMedium
	}
	return domain.ConfidenceHigh
}

// buildUserPrompt frames the research question with jurisdiction, date
// scope and any evidence gathered by the initial search. The closing
// instruction depends on whether tools are offered alongside the prompt.
func (o *Orchestrator) buildUserPrompt(sess *state.ResearchState, withTools bool) string {
	query := sess.Query()

	var sb strings.Builder
	sb.WriteString("Legal research question: " + query.Text + "\n")
	if query.Jurisdiction != "" {
		sb.WriteString("Jurisdiction: " + query.Jurisdiction + "\n")
	}
	if query.EffectiveDate != nil {
		sb.WriteString("Law as of: " + query.EffectiveDate.Format("2006-01-02") + "\n")
	}

	evidence := sess.Evidence()
	if len(evidence) > 0 {
		sb.WriteString("\nInitial search results:\n")
		for i, ev := range evidence {
			if i >= 5 {
				break
			}
			sb.WriteString(fmt.Sprintf("- %s", ev.Title))
			if ev.Citation != "" {
				sb.WriteString(", " + ev.Citation)
			}
			sb.WriteString("\n")
		}
	}

	if gaps.NeedsDeeperResearch(evidence, query) {
		followUps := gaps.GenerateFollowUpQueries(query, gaps.IdentifyGaps(query, evidence))
		if len(followUps) > 0 {
			sb.WriteString("\nCurrent evidence is thin. Consider researching:\n")
			for _, q := range followUps {
				sb.WriteString("- " + q + "\n")
			}
		}
	}

	if withTools {
		sb.WriteString("\nUse the available tools to verify dates and citations before answering.")
	} else {
		sb.WriteString("\nAnswer using the authorities above, citing each one you rely on.")
	}
	return sb.String()
}

// synthesizeFromEvidence builds a minimal answer when the model never
// produced text before the round cap
func (o *Orchestrator) synthesizeFromEvidence(sess *state.ResearchState) string {
	var sb strings.Builder
	sb.WriteString("Research was cut off before a full answer was synthesized. Authorities gathered so far:\n")
	for _, ev := range sess.Evidence() {
		sb.WriteString(fmt.Sprintf("- %s", ev.Title))
		if ev.Citation != "" {
			sb.WriteString(", " + ev.Citation)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func emit(progress ProgressFunc, event domain.ProgressEvent) {
	if progress != nil {
		progress(event)
	}
}
