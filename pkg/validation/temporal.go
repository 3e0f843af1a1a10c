// Package validation checks model-produced answers against ground truth:
// temporal claims against the real clock and citations against the case-law
// service. Validators never rewrite the answer text, they only report.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

const (
	// contextWindow bounds how far around a mentioned date we scan for
	// future-oriented phrasing.
	contextWindow = 200

	// daysUntilTolerance is the allowed slack when recomputing a stated
	// "N days until" count. Small drift from rounding or publication lag
	// is a warning, not an error.
	daysUntilTolerance = 7
)

var monthNames = "January|February|March|April|May|June|July|August|September|October|November|December"

var (
	longFormDateRe  = regexp.MustCompile(`\b(` + monthNames + `)\s+(\d{1,2}),\s+(\d{4})\b`)
	isoDateRe       = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthYearDateRe = regexp.MustCompile(`\b(` + monthNames + `)\s+(\d{4})\b`)

	daysUntilRe = regexp.MustCompile(`(?i)\b(\d+)\s+days?\s+(?:until|before|remaining\s+until)\b`)
)

// futurePhrasings are the patterns that mark text as giving forward-looking
// advice about the nearby date.
var futurePhrasings = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bprepare\s+for\b`),
	regexp.MustCompile(`(?i)\bdays?\s+until\b`),
	regexp.MustCompile(`(?i)\bmust\s+(?:be\s+)?file[d]?\b[^.]{0,80}\bby\b`),
	regexp.MustCompile(`(?i)\bupcoming\b`),
	regexp.MustCompile(`(?i)\bbe\s+ready\s+(?:for|by)\b`),
	regexp.MustCompile(`(?i)\bdeadline\s+to\s+file\b`),
	regexp.MustCompile(`(?i)\bbefore\s+the\s+(?:hearing|deadline|trial)\b`),
}

// mentionedDate is a calendar date extracted from answer text, with its
// position so the surrounding context can be inspected.
type mentionedDate struct {
	date time.Time
	pos  int
	end  int
	raw  string
}

// ValidateTemporalConsistency scans answer text for dates that contradict
// the current date. Past dates surrounded by future-oriented phrasing are
// hard errors. Stated "N days until" counts are recomputed: a past date
// with a positive count is a hard error, a count off by more than the
// tolerance is a warning.
func ValidateTemporalConsistency(text string, now time.Time) domain.ValidationResult {
	result := domain.ValidationResult{Valid: true}

	mentions := extractDates(text)

	for _, m := range mentions {
		if !m.date.Before(truncateToDay(now)) {
			continue
		}
		window := contextAround(text, m.pos, m.end)
		for _, re := range futurePhrasings {
			if re.MatchString(window) {
				result.Errors = append(result.Errors, fmt.Sprintf(
					"forward-looking advice about %s, which is %d days in the past",
					m.raw, -daysBetween(now, m.date)))
				break
			}
		}
	}

	for _, claim := range daysUntilRe.FindAllStringSubmatchIndex(text, -1) {
		stated, err := strconv.Atoi(text[claim[2]:claim[3]])
		if err != nil {
			continue
		}
		target, ok := firstDateAfter(mentions, claim[1])
		if !ok {
			continue
		}
		actual := daysBetween(now, target.date)
		switch {
		case actual < 0:
			result.Errors = append(result.Errors, fmt.Sprintf(
				"claims %d days until %s, but that date is %d days in the past",
				stated, target.raw, -actual))
		case abs(actual-stated) > daysUntilTolerance:
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"claims %d days until %s, actual count is %d",
				stated, target.raw, actual))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// extractDates finds all calendar dates in text, longest forms first so a
// "Month D, YYYY" match is never re-counted as a bare "Month YYYY".
func extractDates(text string) []mentionedDate {
	var mentions []mentionedDate
	claimed := make([]bool, len(text))

	claim := func(start, end int) bool {
		for i := start; i < end; i++ {
			if claimed[i] {
				return false
			}
		}
		for i := start; i < end; i++ {
			claimed[i] = true
		}
		return true
	}

	for _, loc := range longFormDateRe.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		date, err := time.Parse("January 2, 2006", raw)
		if err != nil || !claim(loc[0], loc[1]) {
			continue
		}
		mentions = append(mentions, mentionedDate{date: date, pos: loc[0], end: loc[1], raw: raw})
	}

	for _, loc := range isoDateRe.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		date, err := time.Parse("2006-01-02", raw)
		if err != nil || !claim(loc[0], loc[1]) {
			continue
		}
		mentions = append(mentions, mentionedDate{date: date, pos: loc[0], end: loc[1], raw: raw})
	}

	for _, loc := range monthYearDateRe.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		date, err := time.Parse("January 2006", raw)
		if err != nil || !claim(loc[0], loc[1]) {
			continue
		}
		mentions = append(mentions, mentionedDate{date: date, pos: loc[0], end: loc[1], raw: raw})
	}

	return mentions
}

// firstDateAfter returns the first mentioned date starting at or after pos,
// within the context window.
func firstDateAfter(mentions []mentionedDate, pos int) (mentionedDate, bool) {
	best := mentionedDate{pos: -1}
	for _, m := range mentions {
		if m.pos < pos || m.pos > pos+contextWindow {
			continue
		}
		if best.pos == -1 || m.pos < best.pos {
			best = m
		}
	}
	return best, best.pos != -1
}

func contextAround(text string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(now, date time.Time) int {
	return int(truncateToDay(date).Sub(truncateToDay(now)).Hours() / 24)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
