// Package temporal computes deadline status and case timelines against the
// real system clock. Model-supplied "current dates" are never trusted here.
package temporal

import (
	"fmt"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// dateLayouts are the accepted event date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
	"2006-01-02T15:04:05Z07:00",
}

// ParseDate parses an event date string in any accepted layout
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// DaysBetween returns the signed whole-day distance from now to date,
// comparing calendar dates so time-of-day never shifts the count.
func DaysBetween(now, date time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	eventDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(eventDay.Sub(nowDay).Hours() / 24)
}

// Classify classifies an event date against now, producing status, urgency,
// the signed day delta, and caller-facing guidance. A PASSED event's guidance
// explicitly forbids preparation advice: only post-event remedies or a
// request for the actual outcome are appropriate.
func Classify(event string, date, now time.Time) domain.DeadlineInfo {
	days := DaysBetween(now, date)

	info := domain.DeadlineInfo{
		Event:     event,
		Date:      date,
		DaysUntil: days,
		Urgency:   domain.UrgencyNone,
	}

	switch {
	case days < 0:
		info.Status = domain.DeadlinePassed
		info.Guidance = fmt.Sprintf(
			"%q occurred %d days ago. This deadline has PASSED. Do NOT provide preparation advice for this event. Offer guidance on post-event remedies, or ask what the outcome was.",
			event, -days)
	case days == 0:
		info.Status = domain.DeadlineToday
		info.Guidance = fmt.Sprintf("%q is TODAY. Immediate action is required.", event)
	default:
		info.Status = domain.DeadlineUpcoming
		info.Urgency = urgencyFor(days)
		info.Guidance = fmt.Sprintf("%q is in %d days (urgency: %s).", event, days, info.Urgency)
	}

	return info
}

// urgencyFor maps a positive day delta to an urgency band
func urgencyFor(days int) domain.DeadlineUrgency {
	switch {
	case days < 2:
		return domain.UrgencyCritical
	case days < 7:
		return domain.UrgencyHigh
	case days < 30:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}
