package temporal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// Event is one named case event with its raw date string as supplied by the
// caller
type Event struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// BuildTimeline partitions events into passed/today/upcoming against now.
// Upcoming events are sorted by ascending day delta. Unparsable date strings
// are reported in Errors rather than silently dropped.
func BuildTimeline(events []Event, now time.Time) domain.TimelineReport {
	report := domain.TimelineReport{}

	for _, ev := range events {
		date, err := ParseDate(ev.Date)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("event %q: %v", ev.Name, err))
			continue
		}

		info := Classify(ev.Name, date, now)
		switch info.Status {
		case domain.DeadlinePassed:
			report.Passed = append(report.Passed, info)
		case domain.DeadlineToday:
			report.Today = append(report.Today, info)
		default:
			report.Upcoming = append(report.Upcoming, info)
		}
	}

	sort.Slice(report.Upcoming, func(i, j int) bool {
		return report.Upcoming[i].DaysUntil < report.Upcoming[j].DaysUntil
	})
	sort.Slice(report.Passed, func(i, j int) bool {
		return report.Passed[i].DaysUntil > report.Passed[j].DaysUntil
	})

	return report
}

// RenderTimeline renders a timeline report as markdown for handing back to
// the model or the caller
func RenderTimeline(report domain.TimelineReport) string {
	var sb strings.Builder
	sb.WriteString("## Case Timeline\n")

	writeSection := func(heading string, infos []domain.DeadlineInfo) {
		if len(infos) == 0 {
			return
		}
		sb.WriteString("\n### " + heading + "\n")
		for _, info := range infos {
			sb.WriteString(fmt.Sprintf("- %s: %s (%s)\n",
				info.Date.Format("2006-01-02"), info.Event, info.Guidance))
		}
	}

	writeSection("Today", report.Today)
	writeSection("Upcoming", report.Upcoming)
	writeSection("Passed", report.Passed)

	if len(report.Errors) == 0 && len(report.Passed) == 0 &&
		len(report.Today) == 0 && len(report.Upcoming) == 0 {
		sb.WriteString("\nNo events provided.\n")
	}

	for _, msg := range report.Errors {
		sb.WriteString(fmt.Sprintf("\nERROR: %s\n", msg))
	}

	return sb.String()
}
