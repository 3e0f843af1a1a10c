package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/cache"
	"github.com/counselflow/legal-research-agent/pkg/domain"
	"github.com/counselflow/legal-research-agent/pkg/queryparser"
)

const noCasesFoundPrefix = "No cases found"

// SearchCaseLawTool searches judicial opinions through the case-law
// service. Results are cached because every search is a billed network
// call.
type SearchCaseLawTool struct {
	service domain.CaseLawService
}

// NewSearchCaseLawTool creates the case-law search tool
func NewSearchCaseLawTool(service domain.CaseLawService) *SearchCaseLawTool {
	return &SearchCaseLawTool{service: service}
}

// Name returns the tool name
func (t *SearchCaseLawTool) Name() string { return "search_case_law" }

// Description returns the tool description
func (t *SearchCaseLawTool) Description() string {
	return "Search judicial opinions for relevant case law. Supports boolean operators AND/OR/NOT and quoted phrases in the query. Returns case names, citations, courts, dates and summaries."
}

// Schema returns the tool's parameter schema
func (t *SearchCaseLawTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Type: "object",
		Properties: map[string]domain.SchemaProperty{
			"query": {
				Type:        "string",
				Description: "Search query, e.g. '\"breach of contract\" AND damages NOT fraud'",
			},
			"jurisdiction": {
				Type:        "string",
				Description: "Court or jurisdiction identifier, e.g. 'scotus' or 'ca9'. Empty searches all courts.",
			},
			"date_from": {
				Type:        "string",
				Description: "Earliest filing date, YYYY-MM-DD",
			},
			"date_to": {
				Type:        "string",
				Description: "Latest filing date, YYYY-MM-DD",
			},
		},
		Required: []string{"query"},
	}
}

// Execute runs the search and formats the matching opinions
func (t *SearchCaseLawTool) Execute(ctx context.Context, params map[string]interface{}) (string, error) {
	query, err := stringParam(params, "query")
	if err != nil {
		return "", err
	}
	jurisdiction := optionalStringParam(params, "jurisdiction", "")

	var from, to time.Time
	if s := optionalStringParam(params, "date_from", ""); s != "" {
		if from, err = time.Parse("2006-01-02", s); err != nil {
			return "", fmt.Errorf("invalid date_from %q: %w", s, err)
		}
	}
	if s := optionalStringParam(params, "date_to", ""); s != "" {
		if to, err = time.Parse("2006-01-02", s); err != nil {
			return "", fmt.Errorf("invalid date_to %q: %w", s, err)
		}
	}

	opinions, err := t.service.SearchOpinions(ctx, query, jurisdiction, from, to)
	if err != nil {
		return "", fmt.Errorf("case-law search failed: %w", err)
	}

	opinions = filterOpinions(opinions, query)

	if len(opinions) == 0 {
		return fmt.Sprintf("%s matching %q", noCasesFoundPrefix, query), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d cases matching %q:\n", len(opinions), query))
	for i, op := range opinions {
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, op.Title))
		if op.Citation != "" {
			sb.WriteString(", " + op.Citation)
		}
		if op.Court != "" {
			sb.WriteString(fmt.Sprintf(" (%s", op.Court))
			if !op.Date.IsZero() {
				sb.WriteString(" " + op.Date.Format("2006"))
			}
			sb.WriteString(")")
		}
		if op.Summary != "" {
			sb.WriteString("\n   " + op.Summary)
		}
		if op.URL != "" {
			sb.WriteString("\n   " + op.URL)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// CacheTTL keeps holdings for 30 days and "not found" results for 7, since
// database coverage may improve
func (t *SearchCaseLawTool) CacheTTL(value string) time.Duration {
	if strings.HasPrefix(value, noCasesFoundPrefix) {
		return cache.TTLNotFound
	}
	return cache.TTLCaseLaw
}

// filterOpinions applies the boolean operators in the query as a literal
// match filter over the returned fields, so NOT terms actually exclude
// results the upstream full-text search still returned.
func filterOpinions(opinions []domain.Opinion, query string) []domain.Opinion {
	parsed := queryparser.Parse(query)
	if len(parsed.MustNotTerms) == 0 && len(parsed.ShouldTerms) == 0 {
		return opinions
	}

	predicate := parsed.FilterPredicate("title", "summary")
	filtered := opinions[:0]
	for _, op := range opinions {
		if predicate(map[string]string{"title": op.Title, "summary": op.Summary}) {
			filtered = append(filtered, op)
		}
	}
	return filtered
}

// VerifyCitationTool confirms a citation resolves to a real, specific case
type VerifyCitationTool struct {
	verifier domain.CitationVerifier
}

// NewVerifyCitationTool creates the citation verification tool
func NewVerifyCitationTool(verifier domain.CitationVerifier) *VerifyCitationTool {
	return &VerifyCitationTool{verifier: verifier}
}

// Name returns the tool name
func (t *VerifyCitationTool) Name() string { return "verify_citation" }

// Description returns the tool description
func (t *VerifyCitationTool) Description() string {
	return "Verify that a legal citation resolves to a real case. Supply the case name when known, it makes verification far more reliable. Never cite a case this tool reports as NOT VERIFIED."
}

// Schema returns the tool's parameter schema
func (t *VerifyCitationTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Type: "object",
		Properties: map[string]domain.SchemaProperty{
			"citation": {
				Type:        "string",
				Description: "Reporter citation, e.g. '410 U.S. 113'",
			},
			"case_name": {
				Type:        "string",
				Description: "Case name, e.g. 'Roe v. Wade'",
			},
		},
		Required: []string{"citation"},
	}
}

// Execute verifies the citation and reports the outcome
func (t *VerifyCitationTool) Execute(ctx context.Context, params map[string]interface{}) (string, error) {
	citation, err := stringParam(params, "citation")
	if err != nil {
		return "", err
	}
	caseName := optionalStringParam(params, "case_name", "")

	v, err := t.verifier.VerifyCitation(ctx, citation, caseName)
	if err != nil {
		return "", fmt.Errorf("citation verification failed: %w", err)
	}

	if !v.Found {
		return fmt.Sprintf("NOT VERIFIED: no case matching citation %q was found. Do not rely on this citation.", citation), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("VERIFIED: %s, %s", v.CaseName, v.Citation))
	if v.Court != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", v.Court))
	}
	if v.Date != "" {
		sb.WriteString(", decided " + v.Date)
	}
	if v.URL != "" {
		sb.WriteString("\n" + v.URL)
	}
	return sb.String(), nil
}

// CacheTTL keeps verified citations for 30 days and unverified ones for 7
func (t *VerifyCitationTool) CacheTTL(value string) time.Duration {
	if strings.HasPrefix(value, "NOT VERIFIED") {
		return cache.TTLCitationUnverified
	}
	return cache.TTLCitationVerified
}
