package mood

import (
	"fmt"
	"time"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

// Check-in windows, local time. Half-open: exactly 06:00 and 20:00 are in,
// exactly 12:00 is out. The evening window runs to end of day.
const (
	morningOpenHour  = 6
	morningCloseHour = 12
	eveningOpenHour  = 20

	// MaxAnytimePerDay caps unscheduled logs per calendar day.
	MaxAnytimePerDay = 3

	// MaxEntriesPerDay is the global ceiling across all three categories,
	// checked independently of the per-slot rules.
	MaxEntriesPerDay = 5
)

// CivilDate is a calendar day in some local timezone. "Today" is always a
// calendar date, never a rolling 24h window.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf projects an instant onto its local calendar date.
func DateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// Prev returns the preceding calendar day.
func (d CivilDate) Prev() CivilDate {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return DateOf(t)
}

func hasSlot(entries []models.MoodEntry, slot models.CheckInType) bool {
	for _, e := range entries {
		if e.CheckInType == slot {
			return true
		}
	}
	return false
}

func countSlot(entries []models.MoodEntry, slot models.CheckInType) int {
	n := 0
	for _, e := range entries {
		if e.CheckInType == slot {
			n++
		}
	}
	return n
}

// CanLogMorning reports whether a morning check-in is currently permitted
// given the wall clock and the entries already recorded today.
func CanLogMorning(now time.Time, today []models.MoodEntry) bool {
	if hasSlot(today, models.CheckInMorning) {
		return false
	}
	h := now.Hour()
	return h >= morningOpenHour && h < morningCloseHour
}

// CanLogEvening reports whether an evening check-in is currently permitted.
// The window has no upper bound before midnight.
func CanLogEvening(now time.Time, today []models.MoodEntry) bool {
	if hasSlot(today, models.CheckInEvening) {
		return false
	}
	return now.Hour() >= eveningOpenHour
}

// CanLogAnytime reports whether another unscheduled log fits under the
// per-day anytime cap.
func CanLogAnytime(today []models.MoodEntry) bool {
	return countSlot(today, models.CheckInAnytime) < MaxAnytimePerDay
}

// RemainingToday is the number of entries still allowed under the global
// daily ceiling, floored at zero.
func RemainingToday(today []models.MoodEntry) int {
	remaining := MaxEntriesPerDay - len(today)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Evaluate gates a candidate entry of the given slot. It returns nil when
// the entry may be written, or one of the rejection sentinels. The global
// ceiling is checked first so a day at the cap reports limit-reached even
// when the slot itself would still be open.
func Evaluate(slot models.CheckInType, now time.Time, today []models.MoodEntry) error {
	if RemainingToday(today) == 0 {
		return models.ErrGlobalLimitReached
	}
	switch slot {
	case models.CheckInMorning:
		if !CanLogMorning(now, today) {
			return models.ErrSlotUnavailable
		}
	case models.CheckInEvening:
		if !CanLogEvening(now, today) {
			return models.ErrSlotUnavailable
		}
	case models.CheckInAnytime:
		if !CanLogAnytime(today) {
			return models.ErrAnytimeExhausted
		}
	default:
		return models.ErrValidation
	}
	return nil
}

// AvailabilityMessage renders a human-readable reason for a slot's current
// state: already-logged, not-yet-open, open or closed-for-today for the
// scheduled slots, available or exhausted for anytime.
func AvailabilityMessage(slot models.CheckInType, now time.Time, today []models.MoodEntry) string {
	switch slot {
	case models.CheckInMorning:
		if hasSlot(today, models.CheckInMorning) {
			return "Morning check-in already logged today"
		}
		switch h := now.Hour(); {
		case h < morningOpenHour:
			return fmt.Sprintf("Morning check-in opens at %02d:00", morningOpenHour)
		case h < morningCloseHour:
			return "Morning check-in available now"
		default:
			return "Morning window closed for today"
		}
	case models.CheckInEvening:
		if hasSlot(today, models.CheckInEvening) {
			return "Evening check-in already logged today"
		}
		if now.Hour() < eveningOpenHour {
			return fmt.Sprintf("Evening check-in opens at %02d:00", eveningOpenHour)
		}
		return "Evening check-in available now"
	case models.CheckInAnytime:
		if !CanLogAnytime(today) {
			return fmt.Sprintf("All %d anytime logs used for today", MaxAnytimePerDay)
		}
		return "Anytime log available now"
	}
	return ""
}

// Summarize derives the non-persisted daily summary from one day's entries.
func Summarize(today []models.MoodEntry) models.DailySummary {
	return models.DailySummary{
		MorningLogged:  hasSlot(today, models.CheckInMorning),
		EveningLogged:  hasSlot(today, models.CheckInEvening),
		AnytimeCount:   countSlot(today, models.CheckInAnytime),
		RemainingToday: RemainingToday(today),
	}
}
