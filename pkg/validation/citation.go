package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// reporterCitationRe matches standard reporter citations such as
// "410 U.S. 113" or "576 F.3d 1043".
var reporterCitationRe = regexp.MustCompile(`\b\d{1,4}\s+[A-Za-z][A-Za-z0-9. ]{0,18}?\s+\d{1,5}\b`)

// CitationChecker resolves citation strings against the case-law service.
// It implements domain.CitationVerifier.
type CitationChecker struct {
	caselaw domain.CaseLawService
}

// NewCitationChecker creates a citation checker backed by the given
// case-law service
func NewCitationChecker(caselaw domain.CaseLawService) *CitationChecker {
	return &CitationChecker{caselaw: caselaw}
}

// VerifyCitation looks up a citation, preferring the case name as the search
// query when one is supplied. A result is reported as found only when its
// citation matches the input after normalization, and, if a case name was
// given, the names overlap. Anything ambiguous is reported as not found, so
// absence is never papered over with a wrong match.
func (c *CitationChecker) VerifyCitation(ctx context.Context, citation, caseName string) (*domain.CitationVerification, error) {
	verification := &domain.CitationVerification{Citation: citation}

	query := strings.TrimSpace(caseName)
	if query == "" {
		query = strings.TrimSpace(citation)
	}
	if query == "" {
		return verification, nil
	}

	opinions, err := c.caselaw.SearchOpinions(ctx, query, "", time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("citation lookup failed: %w", err)
	}

	wantCitation := normalizeCitation(citation)
	for _, op := range opinions {
		if normalizeCitation(op.Citation) != wantCitation {
			continue
		}
		if caseName != "" && !caseNamesOverlap(caseName, op.Title) {
			continue
		}
		if caseName == "" && countCitationMatches(opinions, wantCitation) > 1 {
			// A bare citation that resolves to multiple unrelated cases
			// cannot be confirmed.
			break
		}
		verification.Found = true
		verification.CaseName = op.Title
		verification.Court = op.Court
		if !op.Date.IsZero() {
			verification.Date = op.Date.Format("2006-01-02")
		}
		verification.URL = op.URL
		return verification, nil
	}

	return verification, nil
}

// normalizeCitation collapses whitespace and punctuation so formatting
// variants of the same citation compare equal
func normalizeCitation(s string) string {
	s = strings.ToLower(s)
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// caseNamesOverlap reports whether the significant words of the requested
// case name appear in the candidate title
func caseNamesOverlap(want, got string) bool {
	gotLower := strings.ToLower(got)
	matched := 0
	total := 0
	for _, word := range strings.Fields(strings.ToLower(want)) {
		word = strings.Trim(word, ".,;:")
		if word == "v" || word == "v." || word == "vs" || len(word) < 3 {
			continue
		}
		total++
		if strings.Contains(gotLower, word) {
			matched++
		}
	}
	if total == 0 {
		return false
	}
	return matched*2 >= total
}

func countCitationMatches(opinions []domain.Opinion, normalized string) int {
	n := 0
	for _, op := range opinions {
		if normalizeCitation(op.Citation) == normalized {
			n++
		}
	}
	return n
}

// ExtractCitations pulls reporter-style citation strings out of answer text
// so each can be verified individually
func ExtractCitations(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range reporterCitationRe.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		key := normalizeCitation(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}
