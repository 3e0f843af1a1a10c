package temporal

import (
	"strings"
	"testing"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "iso date", input: "2025-06-01", want: "2025-06-01"},
		{name: "long form", input: "June 1, 2025", want: "2025-06-01"},
		{name: "short month", input: "Jun 1, 2025", want: "2025-06-01"},
		{name: "us slash", input: "06/01/2025", want: "2025-06-01"},
		{name: "garbage", input: "next Tuesday", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) returned error: %v", tt.input, err)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{name: "same day ignores time", date: time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC), want: 0},
		{name: "tomorrow", date: time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC), want: 1},
		{name: "past year and a half", date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), want: -517},
		{name: "one month out", date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), want: 30},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(now, tt.date); got != tt.want {
				t.Errorf("DaysBetween = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifyPassedDeadline(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	info := Classify("Discovery Cutoff", date, now)

	if info.Status != domain.DeadlinePassed {
		t.Errorf("Status = %s, want %s", info.Status, domain.DeadlinePassed)
	}
	if info.DaysUntil != -517 {
		t.Errorf("DaysUntil = %d, want -517", info.DaysUntil)
	}
	if !strings.Contains(info.Guidance, "PASSED") {
		t.Errorf("Guidance missing PASSED marker: %q", info.Guidance)
	}
	if !strings.Contains(info.Guidance, "Do NOT provide preparation advice") {
		t.Errorf("Guidance missing anti-preparation warning: %q", info.Guidance)
	}
	if info.Urgency != domain.UrgencyNone {
		t.Errorf("Urgency = %s, want %s", info.Urgency, domain.UrgencyNone)
	}
}

func TestClassifyToday(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	date := time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)

	info := Classify("Filing Deadline", date, now)

	if info.Status != domain.DeadlineToday {
		t.Errorf("Status = %s, want %s", info.Status, domain.DeadlineToday)
	}
	if info.DaysUntil != 0 {
		t.Errorf("DaysUntil = %d, want 0", info.DaysUntil)
	}
}

func TestClassifyUrgencyBands(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		days int
		want domain.DeadlineUrgency
	}{
		{name: "tomorrow is critical", days: 1, want: domain.UrgencyCritical},
		{name: "five days is high", days: 5, want: domain.UrgencyHigh},
		{name: "six days is high", days: 6, want: domain.UrgencyHigh},
		{name: "one week is medium", days: 7, want: domain.UrgencyMedium},
		{name: "three weeks is medium", days: 21, want: domain.UrgencyMedium},
		{name: "thirty days is low", days: 30, want: domain.UrgencyLow},
		{name: "ninety days is low", days: 90, want: domain.UrgencyLow},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			info := Classify("Hearing", now.AddDate(0, 0, tt.days), now)
			if info.Status != domain.DeadlineUpcoming {
				t.Fatalf("Status = %s, want %s", info.Status, domain.DeadlineUpcoming)
			}
			if info.Urgency != tt.want {
				t.Errorf("Urgency at %d days = %s, want %s", tt.days, info.Urgency, tt.want)
			}
		})
	}
}
