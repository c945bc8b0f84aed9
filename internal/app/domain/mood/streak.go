package mood

import (
	"sort"
	"time"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

// ComputeStreak counts consecutive calendar days with at least one entry,
// walking backward from today. Entry timestamps are projected onto the
// caller's local calendar; both "now" and the entries use the same clock
// source, no cross-entry timezone conversion is performed.
//
// A day without an entry yet today yields 0 even when yesterday has one:
// today's absence breaks the chain immediately. That reset semantics is
// intentional and relied upon by the dashboard.
func ComputeStreak(entries []models.MoodEntry, now time.Time) int {
	if len(entries) == 0 {
		return 0
	}

	loc := now.Location()
	seen := make(map[CivilDate]struct{}, len(entries))
	for _, e := range entries {
		seen[DateOf(e.RecordedAt.In(loc))] = struct{}{}
	}

	dates := make([]CivilDate, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		a, b := dates[i], dates[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.Day > b.Day
	})

	streak := 0
	expected := DateOf(now)
	for _, d := range dates {
		if d != expected {
			break
		}
		streak++
		expected = expected.Prev()
	}
	return streak
}
