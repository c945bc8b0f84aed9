package database

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

// The mood_score column must admit every score the validator admits:
// the full [0,10] range at 0.5 granularity, zero included. An integer
// column would silently round half-steps on insert and a CHECK starting
// at 1 would reject a legitimate zero score.
func TestMoodScoreColumnMatchesValidator(t *testing.T) {
	ddl, err := migrationFS.ReadFile("migrations/00001_init_schema.sql")
	require.NoError(t, err)

	scoreLine := regexp.MustCompile(`(?m)^\s*mood_score\s+.*$`).FindString(string(ddl))
	require.NotEmpty(t, scoreLine, "mood_entries must declare a mood_score column")

	assert.Contains(t, scoreLine, "DOUBLE PRECISION",
		"half-step scores like 7.5 need a floating-point column")
	assert.NotContains(t, scoreLine, "SMALLINT")
	assert.Contains(t, scoreLine, "mood_score >= 0",
		"zero is a valid score and must pass the CHECK")
	assert.Contains(t, scoreLine, "mood_score <= 10")

	// The boundary values the column must be able to store.
	for _, score := range []float64{0, 0.5, 7.5, 10} {
		assert.NoError(t, models.ValidateMoodScore(score), "score %v", score)
	}
}

// check_in_type values in the DDL and the model enum must not drift apart.
func TestCheckInTypeColumnMatchesEnum(t *testing.T) {
	ddl, err := migrationFS.ReadFile("migrations/00001_init_schema.sql")
	require.NoError(t, err)

	for _, slot := range []models.CheckInType{models.CheckInMorning, models.CheckInEvening, models.CheckInAnytime} {
		require.True(t, slot.Valid())
		assert.Contains(t, string(ddl), "'"+string(slot)+"'")
	}
}
