package temporal

import (
	"strings"
	"testing"
	"time"
)

func TestBuildTimelinePartitions(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	events := []Event{
		{Name: "Motion Hearing", Date: "2025-07-01"},
		{Name: "Filing Deadline", Date: "2025-05-01"},
		{Name: "Status Conference", Date: "2025-06-01"},
	}

	report := BuildTimeline(events, now)

	if len(report.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if len(report.Passed) != 1 || report.Passed[0].Event != "Filing Deadline" {
		t.Errorf("Passed = %+v, want exactly Filing Deadline", report.Passed)
	}
	if len(report.Today) != 1 || report.Today[0].Event != "Status Conference" {
		t.Errorf("Today = %+v, want exactly Status Conference", report.Today)
	}
	if len(report.Upcoming) != 1 || report.Upcoming[0].Event != "Motion Hearing" {
		t.Errorf("Upcoming = %+v, want exactly Motion Hearing", report.Upcoming)
	}
}

func TestBuildTimelineSortsUpcoming(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	events := []Event{
		{Name: "Trial", Date: "2025-12-01"},
		{Name: "Expert Disclosure", Date: "2025-07-15"},
		{Name: "Pretrial Conference", Date: "2025-11-01"},
	}

	report := BuildTimeline(events, now)

	if len(report.Upcoming) != 3 {
		t.Fatalf("len(Upcoming) = %d, want 3", len(report.Upcoming))
	}
	wantOrder := []string{"Expert Disclosure", "Pretrial Conference", "Trial"}
	for i, want := range wantOrder {
		if report.Upcoming[i].Event != want {
			t.Errorf("Upcoming[%d] = %s, want %s", i, report.Upcoming[i].Event, want)
		}
	}
}

func TestBuildTimelineCollectsParseErrors(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	events := []Event{
		{Name: "Hearing", Date: "sometime soon"},
		{Name: "Deposition", Date: "2025-06-15"},
	}

	report := BuildTimeline(events, now)

	if len(report.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1", len(report.Errors))
	}
	if !strings.Contains(report.Errors[0], "Hearing") {
		t.Errorf("error does not name the event: %q", report.Errors[0])
	}
	if len(report.Upcoming) != 1 {
		t.Errorf("len(Upcoming) = %d, want 1", len(report.Upcoming))
	}
}

func TestRenderTimeline(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	report := BuildTimeline([]Event{
		{Name: "Motion Hearing", Date: "2025-07-01"},
		{Name: "Filing Deadline", Date: "2025-05-01"},
		{Name: "Hearing", Date: "garbled"},
	}, now)

	out := RenderTimeline(report)

	for _, want := range []string{"## Case Timeline", "### Upcoming", "### Passed", "Motion Hearing", "Filing Deadline", "ERROR:"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered timeline missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTimelineEmpty(t *testing.T) {
	out := RenderTimeline(BuildTimeline(nil, time.Now()))
	if !strings.Contains(out, "No events provided.") {
		t.Errorf("empty timeline output = %q", out)
	}
}
