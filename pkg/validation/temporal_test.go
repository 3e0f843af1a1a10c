package validation

import (
	"strings"
	"testing"
	"time"
)

func TestValidateTemporalConsistencyPastDateWithPositiveDaysUntil(t *testing.T) {
	now := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	result := ValidateTemporalConsistency("You have 129 days until February 2025 to file.", now)

	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected at least one hard error")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "in the past") {
			found = true
		}
	}
	if !found {
		t.Errorf("no error mentions the past date: %v", result.Errors)
	}
}

func TestValidateTemporalConsistencyFutureAdviceAboutPastDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	text := "You should prepare for the hearing scheduled on March 15, 2025 by gathering exhibits."
	result := ValidateTemporalConsistency(text, now)

	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "March 15, 2025") {
		t.Errorf("error does not name the date: %q", result.Errors[0])
	}
}

func TestValidateTemporalConsistencyDriftIsWarning(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Actual count to 2025-07-01 is 30 days; 45 exceeds the tolerance.
	result := ValidateTemporalConsistency("There are 45 days until 2025-07-01.", now)

	if !result.Valid {
		t.Fatalf("drift should not be a hard error: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want exactly one", result.Warnings)
	}
}

func TestValidateTemporalConsistencyWithinTolerance(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	result := ValidateTemporalConsistency("There are 27 days until 2025-07-01.", now)

	if !result.Valid || len(result.Warnings) != 0 {
		t.Errorf("expected clean result, got errors=%v warnings=%v", result.Errors, result.Warnings)
	}
}

func TestValidateTemporalConsistencyPastDateWithoutFuturePhrasing(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	text := "The court decided Smith v. Jones on January 10, 2024, holding that notice was adequate."
	result := ValidateTemporalConsistency(text, now)

	if !result.Valid {
		t.Errorf("historical reference should be valid, got %v", result.Errors)
	}
}

func TestValidateTemporalConsistencyNoDates(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	result := ValidateTemporalConsistency("The statute of limitations for breach of contract is four years.", now)

	if !result.Valid || len(result.Errors) != 0 || len(result.Warnings) != 0 {
		t.Errorf("expected clean result, got %+v", result)
	}
}

func TestExtractDatesPrefersLongForm(t *testing.T) {
	mentions := extractDates("The trial begins June 15, 2025 and ends in July 2025.")

	if len(mentions) != 2 {
		t.Fatalf("len(mentions) = %d, want 2", len(mentions))
	}
	if mentions[0].raw != "June 15, 2025" {
		t.Errorf("mentions[0].raw = %q", mentions[0].raw)
	}
	if mentions[1].raw != "July 2025" {
		t.Errorf("mentions[1].raw = %q", mentions[1].raw)
	}
}
