// Package gaps analyzes accumulated evidence for missing categories of legal
// authority and decides when a broader autonomous research pass is needed.
// Every decision here is a deterministic heuristic over the evidence set,
// never a model call.
package gaps

import (
	"fmt"
	"strings"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// minEvidenceCount is the floor below which evidence is always considered
// insufficient.
const minEvidenceCount = 3

// stateLawKeywords flag queries that turn on state or procedural law, where
// practical filing guidance matters as much as holdings.
var stateLawKeywords = []string{
	"state law", "state court", "statute of limitations", "filing requirement",
	"procedural", "procedure", "local rule", "court rule", "small claims",
	"eviction", "landlord", "tenant", "probate", "family court", "divorce",
	"custody",
}

// proceduralVocabulary marks an evidence item as carrying practical
// procedural guidance.
var proceduralVocabulary = []string{
	"deadline", "filing", "motion", "rule", "form",
}

// sourceCategories maps evidence sources to the gap categories they satisfy.
var sourceCategories = map[string][]domain.GapCategory{
	"case_law":      {domain.GapCaseLaw},
	"regulation":    {domain.GapStatutory},
	"deep_research": {domain.GapPractical},
}

// IdentifyGaps compares the evidence set against the authority categories
// the query calls for and reports what is missing
func IdentifyGaps(query domain.ResearchQuery, evidence []domain.Evidence) []domain.KnowledgeGap {
	covered := make(map[domain.GapCategory]bool)
	for _, ev := range evidence {
		for _, cat := range sourceCategories[ev.Source] {
			covered[cat] = true
		}
		if containsAny(ev.Content, proceduralVocabulary) {
			covered[domain.GapProcedural] = true
		}
	}

	var gaps []domain.KnowledgeGap

	if !covered[domain.GapCaseLaw] {
		gaps = append(gaps, domain.KnowledgeGap{
			Category:    domain.GapCaseLaw,
			Description: "no judicial opinions supporting the analysis",
		})
	}
	if !covered[domain.GapStatutory] && mentionsStatutes(query.Text) {
		gaps = append(gaps, domain.KnowledgeGap{
			Category:    domain.GapStatutory,
			Description: "query references statutes or regulations but no statutory text is in evidence",
		})
	}
	if isStateOrProceduralQuery(query.Text) && !covered[domain.GapProcedural] {
		gaps = append(gaps, domain.KnowledgeGap{
			Category:    domain.GapProcedural,
			Description: "no practical filing or deadline guidance for a procedural question",
		})
	}
	if query.Jurisdiction != "" && !anyMentions(evidence, query.Jurisdiction) {
		gaps = append(gaps, domain.KnowledgeGap{
			Category:    domain.GapJurisdictional,
			Description: fmt.Sprintf("no authority specific to jurisdiction %q", query.Jurisdiction),
		})
	}
	if query.EffectiveDate != nil && !covered[domain.GapTemporal] {
		gaps = append(gaps, domain.KnowledgeGap{
			Category:    domain.GapTemporal,
			Description: "query pins an effective date but evidence currency is unconfirmed",
		})
	}

	return gaps
}

// GenerateFollowUpQueries turns identified gaps into concrete follow-up
// search strings. Output order follows gap order so callers get a stable
// plan.
func GenerateFollowUpQueries(query domain.ResearchQuery, knowledgeGaps []domain.KnowledgeGap) []string {
	subject := condenseQuery(query.Text)
	jurisdiction := query.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = "federal"
	}

	var queries []string
	for _, gap := range knowledgeGaps {
		switch gap.Category {
		case domain.GapCaseLaw:
			queries = append(queries, fmt.Sprintf("%s leading cases %s", subject, jurisdiction))
		case domain.GapStatutory:
			queries = append(queries, fmt.Sprintf("%s governing statute OR regulation %s", subject, jurisdiction))
		case domain.GapProcedural:
			queries = append(queries, fmt.Sprintf("%s filing deadline AND procedure %s", subject, jurisdiction))
		case domain.GapJurisdictional:
			queries = append(queries, fmt.Sprintf("%s %s authority", subject, jurisdiction))
		case domain.GapTemporal:
			queries = append(queries, fmt.Sprintf("%s current law recent amendments", subject))
		case domain.GapPractical:
			queries = append(queries, fmt.Sprintf("%s practice guide %s", subject, jurisdiction))
		}
	}
	return queries
}

// NeedsDeeperResearch decides whether the current evidence justifies a
// broader autonomous pass. Evidence is insufficient when empty, below the
// minimum count, or when a state or procedural query has no item carrying
// procedural vocabulary.
func NeedsDeeperResearch(evidence []domain.Evidence, query domain.ResearchQuery) bool {
	if len(evidence) < minEvidenceCount {
		return true
	}
	if !isStateOrProceduralQuery(query.Text) {
		return false
	}
	for _, ev := range evidence {
		if containsAny(ev.Content, proceduralVocabulary) {
			return false
		}
	}
	return true
}

// MergeFindings appends deep-research findings into the evidence set,
// tagging each with its confidence so the final synthesis can weight them.
// Entries duplicating an existing citation are skipped.
func MergeFindings(evidence []domain.Evidence, findings []domain.Evidence) []domain.Evidence {
	seen := make(map[string]bool, len(evidence))
	for _, ev := range evidence {
		if ev.Citation != "" {
			seen[strings.ToLower(ev.Citation)] = true
		}
	}

	merged := evidence
	for _, f := range findings {
		if f.Citation != "" && seen[strings.ToLower(f.Citation)] {
			continue
		}
		if f.Source == "" {
			f.Source = "deep_research"
		}
		if f.Confidence == "" {
			f.Confidence = domain.ConfidenceLow
		}
		merged = append(merged, f)
		if f.Citation != "" {
			seen[strings.ToLower(f.Citation)] = true
		}
	}
	return merged
}

func isStateOrProceduralQuery(text string) bool {
	return containsAny(text, stateLawKeywords)
}

func mentionsStatutes(text string) bool {
	return containsAny(text, []string{"statute", "regulation", "cfr", "u.s.c", "usc", "code"})
}

func containsAny(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func anyMentions(evidence []domain.Evidence, term string) bool {
	for _, ev := range evidence {
		if containsAny(ev.Content+" "+ev.Title, []string{strings.ToLower(term)}) {
			return true
		}
	}
	return false
}

// condenseQuery trims a free-text question down to its subject words for
// reuse inside follow-up searches
func condenseQuery(text string) string {
	fields := strings.Fields(text)
	if len(fields) > 8 {
		fields = fields[:8]
	}
	return strings.Join(fields, " ")
}
