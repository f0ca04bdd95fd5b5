package scheduler

import (
	"fmt"
	"sort"
	"time"

	"smsoutreach/internal/models"
)

// NextOccurrence computes the earliest valid occurrence strictly after now,
// preserving the anchor's time of day. Weekly recurrences fall on the given
// weekday set, defaulting to the anchor's own weekday; monthly recurrences
// preserve the anchor's day of month, clamping to the last day of shorter
// months. Returns (zero, false) when no occurrence remains before the end
// date, or when the end date has already passed.
func NextOccurrence(rtype models.RecurrenceType, anchor, now time.Time, weekdays []time.Weekday, end *time.Time) (time.Time, bool, error) {
	if !models.ValidRecurrenceType(rtype) {
		return time.Time{}, false, fmt.Errorf("unknown recurrence type %q", rtype)
	}
	if end != nil && end.Before(now) {
		return time.Time{}, false, nil
	}

	var next time.Time
	switch rtype {
	case models.RecurrenceDaily:
		next = nextDaily(anchor, now)
	case models.RecurrenceWeekly:
		next = nextWeekly(anchor, now, weekdays)
	case models.RecurrenceMonthly:
		next = nextMonthly(anchor, now)
	}

	if end != nil && next.After(*end) {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

func nextDaily(anchor, now time.Time) time.Time {
	next := atAnchorTime(now, anchor)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func nextWeekly(anchor, now time.Time, weekdays []time.Weekday) time.Time {
	if len(weekdays) == 0 {
		weekdays = []time.Weekday{anchor.Weekday()}
	}
	allowed := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		allowed[d] = true
	}

	// At most 7 days until an allowed weekday comes around again.
	candidate := atAnchorTime(now, anchor)
	for i := 0; i <= 7; i++ {
		if allowed[candidate.Weekday()] && candidate.After(now) {
			return candidate
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func nextMonthly(anchor, now time.Time) time.Time {
	day := anchor.Day()
	year, month := now.Year(), now.Month()

	for i := 0; i < 24; i++ {
		candidate := monthlyOn(year, month, day, anchor, now.Location())
		if candidate.After(now) {
			return candidate
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return monthlyOn(year, month, day, anchor, now.Location())
}

// monthlyOn builds the occurrence for one month, clamping the day to the
// month's last day so a day-31 anchor still fires in 30-day months.
func monthlyOn(year int, month time.Month, day int, anchor time.Time, loc *time.Location) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, anchor.Hour(), anchor.Minute(), anchor.Second(), 0, loc)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// atAnchorTime returns the anchor's time of day on now's date
func atAnchorTime(now, anchor time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(),
		anchor.Hour(), anchor.Minute(), anchor.Second(), 0, now.Location())
}

// Occurrences lists every occurrence after start up to and including end, in
// order. Used by schedule previews.
func Occurrences(rtype models.RecurrenceType, anchor, start time.Time, weekdays []time.Weekday, end time.Time, max int) ([]time.Time, error) {
	if max <= 0 {
		max = 100
	}
	var out []time.Time
	now := start
	endCopy := end
	for len(out) < max {
		next, ok, err := NextOccurrence(rtype, anchor, now, weekdays, &endCopy)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, next)
		now = next
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
