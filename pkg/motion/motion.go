// Package motion renders boilerplate legal-motion skeletons as markdown.
// Rendering is a pure function of motion type and case facts, with no model
// or network involvement, so output is byte-stable for identical input.
package motion

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Facts carries the case details substituted into a motion skeleton. Empty
// fields render as bracketed placeholders for the attorney to fill in.
type Facts struct {
	Court         string   `json:"court"`
	CaseName      string   `json:"case_name"`
	CaseNumber    string   `json:"case_number"`
	MovingParty   string   `json:"moving_party"`
	OpposingParty string   `json:"opposing_party"`
	Judge         string   `json:"judge"`
	FactSummary   string   `json:"fact_summary"`
	ReliefSought  string   `json:"relief_sought"`
	Grounds       []string `json:"grounds"`
}

type motionSpec struct {
	title    string
	standard string
	grounds  []string
}

// motionTypes is the fixed catalog of supported skeletons, keyed by the
// identifier callers pass in.
var motionTypes = map[string]motionSpec{
	"motion_to_dismiss": {
		title:    "Motion to Dismiss",
		standard: "A complaint must be dismissed when, taking all well-pleaded allegations as true, it fails to state a claim upon which relief can be granted.",
		grounds: []string{
			"The complaint fails to state a claim upon which relief can be granted.",
			"[State additional grounds, e.g. lack of jurisdiction or improper venue.]",
		},
	},
	"motion_for_summary_judgment": {
		title:    "Motion for Summary Judgment",
		standard: "Summary judgment is proper when there is no genuine dispute as to any material fact and the movant is entitled to judgment as a matter of law.",
		grounds: []string{
			"The undisputed material facts entitle the moving party to judgment as a matter of law.",
		},
	},
	"motion_to_compel": {
		title:    "Motion to Compel Discovery",
		standard: "A party may move for an order compelling disclosure or discovery after conferring in good faith with the party failing to respond.",
		grounds: []string{
			"The opposing party has failed to respond to properly served discovery requests.",
			"The moving party has conferred in good faith to obtain the discovery without court action.",
		},
	},
	"motion_for_continuance": {
		title:    "Motion for Continuance",
		standard: "A continuance may be granted upon a showing of good cause that is not attributable to lack of diligence by the moving party.",
		grounds: []string{
			"[State the good cause supporting the continuance.]",
		},
	},
	"motion_in_limine": {
		title:    "Motion in Limine",
		standard: "Evidence whose probative value is substantially outweighed by the danger of unfair prejudice may be excluded before trial.",
		grounds: []string{
			"[Identify the evidence to be excluded and the basis for exclusion.]",
		},
	},
}

var skeletonTmpl = template.Must(template.New("motion").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`# {{.Title}}

**{{.Court}}**

{{.CaseName}}
Case No. {{.CaseNumber}}

## {{.TitleUpper}}

{{.MovingParty}} respectfully moves this Court{{if .Judge}} (Hon. {{.Judge}}){{end}} for the relief set forth below.

## I. Introduction

{{.FactSummary}}

## II. Legal Standard

{{.Standard}}

## III. Argument

{{range $i, $g := .Grounds}}{{printf "%d. %s" (inc $i) $g}}
{{end}}
## IV. Conclusion

For the foregoing reasons, {{.MovingParty}} respectfully requests that the Court {{.Relief}}.

Respectfully submitted,

[ATTORNEY NAME]
[BAR NUMBER]
Counsel for {{.MovingParty}}

## Certificate of Service

I hereby certify that on [DATE] a true and correct copy of the foregoing was served on counsel for {{.OpposingParty}}.
`))

// SupportedTypes lists the motion type identifiers in sorted order
func SupportedTypes() []string {
	types := make([]string, 0, len(motionTypes))
	for name := range motionTypes {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Render produces the markdown skeleton for the given motion type and facts.
// Unknown motion types return an error listing the supported set.
func Render(motionType string, facts Facts) (string, error) {
	spec, ok := motionTypes[strings.ToLower(strings.TrimSpace(motionType))]
	if !ok {
		return "", fmt.Errorf("unknown motion type %q, supported types: %s",
			motionType, strings.Join(SupportedTypes(), ", "))
	}

	grounds := spec.grounds
	if len(facts.Grounds) > 0 {
		grounds = facts.Grounds
	}

	data := map[string]interface{}{
		"Title":         spec.title,
		"TitleUpper":    strings.ToUpper(spec.title),
		"Standard":      spec.standard,
		"Grounds":       grounds,
		"Court":         orPlaceholder(facts.Court, "[COURT]"),
		"CaseName":      orPlaceholder(facts.CaseName, "[PLAINTIFF] v. [DEFENDANT]"),
		"CaseNumber":    orPlaceholder(facts.CaseNumber, "[CASE NUMBER]"),
		"MovingParty":   orPlaceholder(facts.MovingParty, "[MOVING PARTY]"),
		"OpposingParty": orPlaceholder(facts.OpposingParty, "[OPPOSING PARTY]"),
		"Judge":         facts.Judge,
		"FactSummary":   orPlaceholder(facts.FactSummary, "[SUMMARIZE THE RELEVANT FACTS.]"),
		"Relief":        orPlaceholder(facts.ReliefSought, "grant the relief requested herein"),
	}

	var buf bytes.Buffer
	if err := skeletonTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering motion template: %w", err)
	}
	return buf.String(), nil
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
