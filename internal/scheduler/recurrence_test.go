package scheduler

import (
	"testing"
	"time"

	"smsoutreach/internal/models"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return parsed
}

// TestNextOccurrence_Daily fires at the anchor's time of day, today if it has
// not passed yet, otherwise tomorrow
func TestNextOccurrence_Daily(t *testing.T) {
	anchor := mustTime(t, "2025-01-01 09:30")

	// Before today's slot
	now := mustTime(t, "2025-06-10 08:00")
	next, ok, err := NextOccurrence(models.RecurrenceDaily, anchor, now, nil, nil)
	if err != nil || !ok {
		t.Fatalf("expected occurrence, got ok=%v err=%v", ok, err)
	}
	if want := mustTime(t, "2025-06-10 09:30"); !next.Equal(want) {
		t.Errorf("Expected %v but got %v", want, next)
	}

	// After today's slot
	now = mustTime(t, "2025-06-10 10:00")
	next, _, _ = NextOccurrence(models.RecurrenceDaily, anchor, now, nil, nil)
	if want := mustTime(t, "2025-06-11 09:30"); !next.Equal(want) {
		t.Errorf("Expected %v but got %v", want, next)
	}
}

// TestNextOccurrence_WeeklyDaySet advances to the next allowed weekday
func TestNextOccurrence_WeeklyDaySet(t *testing.T) {
	anchor := mustTime(t, "2025-06-02 10:00") // a Monday
	days := []time.Weekday{time.Monday, time.Wednesday}

	// Tuesday -> Wednesday
	now := mustTime(t, "2025-06-03 12:00")
	next, ok, err := NextOccurrence(models.RecurrenceWeekly, anchor, now, days, nil)
	if err != nil || !ok {
		t.Fatalf("expected occurrence, got ok=%v err=%v", ok, err)
	}
	if want := mustTime(t, "2025-06-04 10:00"); !next.Equal(want) {
		t.Errorf("Expected %v but got %v", want, next)
	}

	// Wednesday after send time -> next Monday
	now = mustTime(t, "2025-06-04 11:00")
	next, _, _ = NextOccurrence(models.RecurrenceWeekly, anchor, now, days, nil)
	if want := mustTime(t, "2025-06-09 10:00"); !next.Equal(want) {
		t.Errorf("Expected %v but got %v", want, next)
	}
}

// TestNextOccurrence_WeeklyDefaultsToAnchorWeekday uses the anchor's own
// weekday when no day set is given
func TestNextOccurrence_WeeklyDefaultsToAnchorWeekday(t *testing.T) {
	anchor := mustTime(t, "2025-06-06 14:00") // a Friday
	now := mustTime(t, "2025-06-07 09:00")    // Saturday

	next, ok, err := NextOccurrence(models.RecurrenceWeekly, anchor, now, nil, nil)
	if err != nil || !ok {
		t.Fatalf("expected occurrence, got ok=%v err=%v", ok, err)
	}
	if next.Weekday() != time.Friday {
		t.Errorf("Expected a Friday but got %v", next.Weekday())
	}
	if want := mustTime(t, "2025-06-13 14:00"); !next.Equal(want) {
		t.Errorf("Expected %v but got %v", want, next)
	}
}

// TestNextOccurrence_MonthlyClampsToShortMonths keeps a day-31 anchor firing
// on the last day of shorter months
func TestNextOccurrence_MonthlyClampsToShortMonths(t *testing.T) {
	anchor := mustTime(t, "2025-01-31 08:00")

	now := mustTime(t, "2025-02-01 00:00")
	next, ok, err := NextOccurrence(models.RecurrenceMonthly, anchor, now, nil, nil)
	if err != nil || !ok {
		t.Fatalf("expected occurrence, got ok=%v err=%v", ok, err)
	}
	if want := mustTime(t, "2025-02-28 08:00"); !next.Equal(want) {
		t.Errorf("Expected %v but got %v", want, next)
	}

	// April has 30 days
	now = mustTime(t, "2025-04-01 00:00")
	next, _, _ = NextOccurrence(models.RecurrenceMonthly, anchor, now, nil, nil)
	if want := mustTime(t, "2025-04-30 08:00"); !next.Equal(want) {
		t.Errorf("Expected %v but got %v", want, next)
	}
}

// TestNextOccurrence_EndDate stops recurrences at the end date
func TestNextOccurrence_EndDate(t *testing.T) {
	anchor := mustTime(t, "2025-06-01 09:00")

	// End already in the past
	now := mustTime(t, "2025-06-10 00:00")
	end := mustTime(t, "2025-06-05 00:00")
	_, ok, err := NextOccurrence(models.RecurrenceDaily, anchor, now, nil, &end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("Expected no occurrence past the end date")
	}

	// Next slot falls after the end
	now = mustTime(t, "2025-06-04 10:00")
	_, ok, _ = NextOccurrence(models.RecurrenceDaily, anchor, now, nil, &end)
	if ok {
		t.Error("Expected no occurrence when the next slot is after the end date")
	}
}

func TestNextOccurrence_UnknownType(t *testing.T) {
	_, _, err := NextOccurrence(models.RecurrenceType("yearly"), time.Now(), time.Now(), nil, nil)
	if err == nil {
		t.Error("Expected error for unknown recurrence type")
	}
}

// TestOccurrences_WeeklyTwoWeekWindow enumerates a Monday/Wednesday schedule
// over two weeks and terminates at the end date
func TestOccurrences_WeeklyTwoWeekWindow(t *testing.T) {
	anchor := mustTime(t, "2025-06-02 10:00") // Monday
	start := mustTime(t, "2025-06-01 00:00")  // Sunday
	end := mustTime(t, "2025-06-14 23:59")
	days := []time.Weekday{time.Monday, time.Wednesday}

	got, err := Occurrences(models.RecurrenceWeekly, anchor, start, days, end, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		mustTime(t, "2025-06-02 10:00"),
		mustTime(t, "2025-06-04 10:00"),
		mustTime(t, "2025-06-09 10:00"),
		mustTime(t, "2025-06-11 10:00"),
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d occurrences but got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("Expected occurrence %d at %v but got %v", i, want[i], got[i])
		}
	}
}
