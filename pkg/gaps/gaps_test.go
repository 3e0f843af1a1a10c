package gaps

import (
	"testing"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

func caseLawEvidence(title, content string) domain.Evidence {
	return domain.Evidence{
		Source:     "case_law",
		Title:      title,
		Content:    content,
		Confidence: domain.ConfidenceHigh,
	}
}

func TestNeedsDeeperResearch(t *testing.T) {
	richEvidence := []domain.Evidence{
		caseLawEvidence("A v. B", "holding on contract damages"),
		caseLawEvidence("C v. D", "consequential damages analysis"),
		caseLawEvidence("E v. F", "expectation interest discussion"),
	}

	tests := []struct {
		name     string
		evidence []domain.Evidence
		query    string
		want     bool
	}{
		{name: "empty evidence", evidence: nil, query: "contract damages", want: true},
		{name: "below minimum count", evidence: richEvidence[:2], query: "contract damages", want: true},
		{name: "sufficient general evidence", evidence: richEvidence, query: "contract damages", want: false},
		{
			name:     "procedural query without procedural vocabulary",
			evidence: richEvidence,
			query:    "California small claims court process",
			want:     true,
		},
		{
			name: "procedural query with filing guidance",
			evidence: []domain.Evidence{
				richEvidence[0],
				richEvidence[1],
				caseLawEvidence("Local Guide", "the filing deadline is 30 days after service"),
			},
			query: "California small claims court process",
			want:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			query := domain.ResearchQuery{Text: tt.query}
			if got := NeedsDeeperResearch(tt.evidence, query); got != tt.want {
				t.Errorf("NeedsDeeperResearch = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentifyGapsMissingCaseLaw(t *testing.T) {
	query := domain.ResearchQuery{Text: "breach of contract damages"}

	gaps := IdentifyGaps(query, nil)

	if !hasCategory(gaps, domain.GapCaseLaw) {
		t.Errorf("expected a case-law gap, got %+v", gaps)
	}
}

func TestIdentifyGapsStatutoryQuery(t *testing.T) {
	query := domain.ResearchQuery{Text: "what does the statute require for notice"}
	evidence := []domain.Evidence{caseLawEvidence("A v. B", "notice holding")}

	gaps := IdentifyGaps(query, evidence)

	if !hasCategory(gaps, domain.GapStatutory) {
		t.Errorf("expected a statutory gap, got %+v", gaps)
	}
	if hasCategory(gaps, domain.GapCaseLaw) {
		t.Errorf("case-law gap reported despite case-law evidence: %+v", gaps)
	}
}

func TestIdentifyGapsJurisdiction(t *testing.T) {
	query := domain.ResearchQuery{Text: "eviction notice period", Jurisdiction: "Texas"}
	evidence := []domain.Evidence{
		caseLawEvidence("A v. B", "general holding with no state mentioned"),
	}

	gaps := IdentifyGaps(query, evidence)

	if !hasCategory(gaps, domain.GapJurisdictional) {
		t.Errorf("expected a jurisdictional gap, got %+v", gaps)
	}
}

func TestIdentifyGapsTemporal(t *testing.T) {
	effective := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	query := domain.ResearchQuery{Text: "overtime pay rules", EffectiveDate: &effective}

	gaps := IdentifyGaps(query, []domain.Evidence{caseLawEvidence("A v. B", "overtime holding")})

	if !hasCategory(gaps, domain.GapTemporal) {
		t.Errorf("expected a temporal gap, got %+v", gaps)
	}
}

func TestGenerateFollowUpQueries(t *testing.T) {
	query := domain.ResearchQuery{Text: "breach of contract damages", Jurisdiction: "California"}
	knowledgeGaps := []domain.KnowledgeGap{
		{Category: domain.GapCaseLaw},
		{Category: domain.GapProcedural},
	}

	queries := GenerateFollowUpQueries(query, knowledgeGaps)

	if len(queries) != 2 {
		t.Fatalf("len(queries) = %d, want 2", len(queries))
	}
	for _, q := range queries {
		if q == "" {
			t.Error("empty follow-up query generated")
		}
	}
	if queries[1] != "breach of contract damages filing deadline AND procedure California" {
		t.Errorf("procedural query = %q", queries[1])
	}
}

func TestMergeFindings(t *testing.T) {
	evidence := []domain.Evidence{
		{Source: "case_law", Citation: "410 U.S. 113", Content: "existing"},
	}
	findings := []domain.Evidence{
		{Citation: "410 U.S. 113", Content: "duplicate"},
		{Title: "Agency Guidance", Content: "new practical finding"},
	}

	merged := MergeFindings(evidence, findings)

	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	added := merged[1]
	if added.Source != "deep_research" {
		t.Errorf("Source = %q, want deep_research", added.Source)
	}
	if added.Confidence != domain.ConfidenceLow {
		t.Errorf("Confidence = %q, want %q", added.Confidence, domain.ConfidenceLow)
	}
}

func hasCategory(gaps []domain.KnowledgeGap, cat domain.GapCategory) bool {
	for _, g := range gaps {
		if g.Category == cat {
			return true
		}
	}
	return false
}
