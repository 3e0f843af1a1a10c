package motion

import (
	"strings"
	"testing"
)

func TestRenderMotionToDismiss(t *testing.T) {
	facts := Facts{
		Court:         "United States District Court for the Northern District of California",
		CaseName:      "Acme Corp. v. Widget LLC",
		CaseNumber:    "3:25-cv-01234",
		MovingParty:   "Widget LLC",
		OpposingParty: "Acme Corp.",
		FactSummary:   "Plaintiff alleges breach of a supply agreement.",
		ReliefSought:  "dismiss the complaint with prejudice",
	}

	out, err := Render("motion_to_dismiss", facts)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	for _, want := range []string{
		"# Motion to Dismiss",
		"MOTION TO DISMISS",
		"Acme Corp. v. Widget LLC",
		"Case No. 3:25-cv-01234",
		"Widget LLC respectfully moves this Court",
		"## II. Legal Standard",
		"fails to state a claim",
		"dismiss the complaint with prejudice",
		"Certificate of Service",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	facts := Facts{CaseName: "A v. B", MovingParty: "A"}

	first, err := Render("motion_to_compel", facts)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	second, err := Render("motion_to_compel", facts)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if first != second {
		t.Error("identical input produced different output")
	}
}

func TestRenderEmptyFactsUsesPlaceholders(t *testing.T) {
	out, err := Render("motion_for_continuance", Facts{})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	for _, want := range []string{"[COURT]", "[CASE NUMBER]", "[MOVING PARTY]", "[OPPOSING PARTY]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing placeholder %q", want)
		}
	}
}

func TestRenderCustomGrounds(t *testing.T) {
	facts := Facts{Grounds: []string{"First custom ground.", "Second custom ground."}}

	out, err := Render("motion_in_limine", facts)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if !strings.Contains(out, "1. First custom ground.") {
		t.Errorf("output missing numbered first ground:\n%s", out)
	}
	if !strings.Contains(out, "2. Second custom ground.") {
		t.Errorf("output missing numbered second ground:\n%s", out)
	}
}

func TestRenderUnknownType(t *testing.T) {
	if _, err := Render("motion_to_levitate", Facts{}); err == nil {
		t.Fatal("expected error for unknown motion type")
	} else if !strings.Contains(err.Error(), "motion_to_dismiss") {
		t.Errorf("error does not list supported types: %v", err)
	}
}

func TestSupportedTypesSorted(t *testing.T) {
	types := SupportedTypes()
	if len(types) != 5 {
		t.Fatalf("len(types) = %d, want 5", len(types))
	}
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Errorf("types not sorted: %v", types)
		}
	}
}
