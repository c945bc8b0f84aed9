package models

import (
	"fmt"
	"time"
)

// CheckInType tags which schedule slot produced a mood entry. It is a closed
// set; Valid guards anything arriving over the wire.
type CheckInType string

const (
	CheckInMorning CheckInType = "morning"
	CheckInEvening CheckInType = "evening"
	CheckInAnytime CheckInType = "anytime"
)

func (t CheckInType) Valid() bool {
	switch t {
	case CheckInMorning, CheckInEvening, CheckInAnytime:
		return true
	}
	return false
}

// Location is the reverse-geocoded place a mood entry was logged from.
// Geocoding is best-effort: any failure yields the Unknown sentinel, which
// the city aggregation excludes entirely.
type Location struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
}

const UnknownCity = "Unknown"

// IsUnknown reports whether geocoding failed to resolve a usable city.
func (l Location) IsUnknown() bool {
	return l.City == "" || l.City == UnknownCity
}

// MoodEntry is the atomic record of a single mood report. Entries are
// created once and never mutated; only the owning user can read them.
type MoodEntry struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	MoodScore   float64     `json:"mood_score"`
	Note        string      `json:"note,omitempty"`
	CheckInType CheckInType `json:"check_in_type"`
	RecordedAt  time.Time   `json:"recorded_at"`
	Location    *Location   `json:"location,omitempty"`
}

// CityBucket is the running per-city mood aggregate. AverageMood is always
// round2(MoodSum/TotalLogs); TotalLogs never decreases (there is no entry
// retraction path).
type CityBucket struct {
	BucketKey   string    `json:"bucket_key"`
	City        string    `json:"city"`
	Region      string    `json:"region"`
	Country     string    `json:"country"`
	CountryCode string    `json:"country_code"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	TotalLogs   int64     `json:"total_logs"`
	MoodSum     float64   `json:"mood_sum"`
	AverageMood float64   `json:"average_mood"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DailySummary is derived from a user's entries for one calendar day and is
// never persisted; eligibility is always recomputed from raw entries.
type DailySummary struct {
	MorningLogged  bool `json:"morning_logged"`
	EveningLogged  bool `json:"evening_logged"`
	AnytimeCount   int  `json:"anytime_count"`
	RemainingToday int  `json:"remaining_today"`
}

// Insights is the structured output of the AI insight generation over the
// user's five most recent entries.
type Insights struct {
	Summary             string   `json:"summary"`
	BestTime            string   `json:"bestTime"`
	BestTimeExplanation string   `json:"bestTimeExplanation"`
	Suggestions         []string `json:"suggestions"`
	Emoji               string   `json:"emoji"`
}

// Event is a nearby event as returned by the event listing integration.
// Purely informational; the core logic never consumes it.
type Event struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Venue      string `json:"venue"`
	City       string `json:"city"`
	State      string `json:"state"`
	Image      string `json:"image"`
	Category   string `json:"category"`
	URL        string `json:"url"`
	PriceRange string `json:"price_range"`
}

// UserAuth carries the fields needed for credential validation and token
// generation.
type UserAuth struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// ValidateMoodScore enforces the [0,10] range with 0.5 granularity.
func ValidateMoodScore(score float64) error {
	if score < 0 || score > 10 {
		return fmt.Errorf("mood score %.1f out of range [0,10]: %w", score, ErrValidation)
	}
	if score*2 != float64(int64(score*2)) {
		return fmt.Errorf("mood score %.2f not a 0.5 step: %w", score, ErrValidation)
	}
	return nil
}

// MaxNoteLength bounds the free-text note attached to an entry.
const MaxNoteLength = 200
