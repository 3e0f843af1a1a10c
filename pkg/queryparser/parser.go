// Package queryparser turns free-text boolean queries (AND/OR/NOT, quoted
// phrases) into a structured query usable for literal-match search filters.
package queryparser

import (
	"strings"
)

// ParsedQuery holds the structured form of a boolean query. A term appears
// in at most one of Must/Should/MustNot. Phrases lists the quoted literal
// groups, which also appear as atomic terms in the three sets.
type ParsedQuery struct {
	MustTerms    []string `json:"must_terms"`
	ShouldTerms  []string `json:"should_terms"`
	MustNotTerms []string `json:"must_not_terms"`
	Phrases      []string `json:"phrases"`
}

// IsEmpty reports whether the query contains no positive search terms
func (pq ParsedQuery) IsEmpty() bool {
	return len(pq.MustTerms) == 0 && len(pq.ShouldTerms) == 0
}

type operator int

const (
	opAnd operator = iota
	opOr
	opNot
)

// Parse parses a free-text query with AND/OR/NOT operators and quoted
// phrases. Operators are case-insensitive; the default combinator between
// bare terms is AND. NOT applies to the single term or phrase immediately
// following it and resets after consumption. When parsing yields no usable
// positive terms the entire query is treated as a single must-phrase so the
// caller always gets something searchable.
func Parse(query string) ParsedQuery {
	pq := ParsedQuery{}
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return pq
	}

	tokens, phrases := tokenize(trimmed)
	pq.Phrases = phrases

	seen := make(map[string]bool)
	pending := opAnd
	lastMustIdx := -1

	for _, tok := range tokens {
		switch strings.ToUpper(tok.text) {
		case "AND":
			if !tok.phrase {
				pending = opAnd
				continue
			}
		case "OR":
			if !tok.phrase {
				pending = opOr
				// "a OR b" groups both sides as alternatives
				if lastMustIdx >= 0 {
					moved := pq.MustTerms[lastMustIdx]
					pq.MustTerms = append(pq.MustTerms[:lastMustIdx], pq.MustTerms[lastMustIdx+1:]...)
					if len(pq.MustTerms) == 0 {
						pq.MustTerms = nil
					}
					pq.ShouldTerms = append(pq.ShouldTerms, moved)
					lastMustIdx = -1
				}
				continue
			}
		case "NOT":
			if !tok.phrase {
				pending = opNot
				continue
			}
		}

		term := strings.ToLower(tok.text)
		if tok.phrase {
			term = tok.text
		}
		if term == "" || seen[term] {
			pending = opAnd
			continue
		}
		seen[term] = true

		switch pending {
		case opNot:
			pq.MustNotTerms = append(pq.MustNotTerms, term)
		case opOr:
			pq.ShouldTerms = append(pq.ShouldTerms, term)
		default:
			pq.MustTerms = append(pq.MustTerms, term)
			lastMustIdx = len(pq.MustTerms) - 1
		}
		pending = opAnd
	}

	// Degrade gracefully: an all-operator or unparsable query still searches.
	if pq.IsEmpty() {
		pq = ParsedQuery{
			MustTerms: []string{trimmed},
			Phrases:   []string{trimmed},
		}
	}

	return pq
}

type token struct {
	text   string
	phrase bool
}

// tokenize extracts quoted phrases first so internal whitespace never splits
// them, then splits the remainder on whitespace.
func tokenize(query string) ([]token, []string) {
	var tokens []token
	var phrases []string

	var sb strings.Builder
	inQuote := false

	flush := func(phrase bool) {
		text := strings.TrimSpace(sb.String())
		sb.Reset()
		if text == "" {
			return
		}
		if phrase {
			phrases = append(phrases, text)
			tokens = append(tokens, token{text: text, phrase: true})
			return
		}
		for _, word := range strings.Fields(text) {
			tokens = append(tokens, token{text: word})
		}
	}

	for _, r := range query {
		if r == '"' {
			flush(inQuote)
			inQuote = !inQuote
			continue
		}
		sb.WriteRune(r)
	}
	// An unterminated quote is treated as a phrase to the end of input.
	flush(inQuote)

	return tokens, phrases
}

// FilterPredicate returns a predicate over field-name to field-value records
// that ANDs together: every must-term present in at least one of the given
// fields, every must-not term absent from all of them, and, when should-terms
// exist, at least one present. Matching is case-insensitive substring match;
// phrases match literally including internal whitespace.
func (pq ParsedQuery) FilterPredicate(fields ...string) func(record map[string]string) bool {
	return func(record map[string]string) bool {
		contains := func(term string) bool {
			needle := strings.ToLower(term)
			for _, f := range fields {
				if strings.Contains(strings.ToLower(record[f]), needle) {
					return true
				}
			}
			return false
		}

		for _, term := range pq.MustTerms {
			if !contains(term) {
				return false
			}
		}
		for _, term := range pq.MustNotTerms {
			if contains(term) {
				return false
			}
		}
		if len(pq.ShouldTerms) > 0 {
			any := false
			for _, term := range pq.ShouldTerms {
				if contains(term) {
					any = true
					break
				}
			}
			if !any {
				return false
			}
		}
		return true
	}
}
