package citymood

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

func TestBucketKey(t *testing.T) {
	assert.Equal(t, "Lisbon_Lisboa_PT", BucketKey("Lisbon", "Lisboa", "PT"))
	assert.Equal(t, "New_York_New_York_US", BucketKey("New York", "New York", "US"))
	assert.Equal(t, "Rio_de_Janeiro_RJ_BR", BucketKey("Rio de Janeiro", "RJ", "BR"))
}

func TestFoldEntry(t *testing.T) {
	t.Run("FirstEntryCreatesBucket", func(t *testing.T) {
		b := FoldEntry(nil, 8.0)
		assert.Equal(t, int64(1), b.TotalLogs)
		assert.Equal(t, 8.0, b.MoodSum)
		assert.Equal(t, 8.0, b.AverageMood)
	})

	t.Run("SecondEntryUpdatesRunningMean", func(t *testing.T) {
		first := FoldEntry(nil, 8.0)
		second := FoldEntry(&first, 6.0)
		assert.Equal(t, int64(2), second.TotalLogs)
		assert.Equal(t, 14.0, second.MoodSum)
		assert.Equal(t, 7.0, second.AverageMood)
	})

	t.Run("AverageRoundsToTwoDecimals", func(t *testing.T) {
		b := FoldEntry(nil, 7.0)
		b = FoldEntry(&b, 7.0)
		b = FoldEntry(&b, 8.0)
		// 22/3 = 7.333...
		assert.Equal(t, 7.33, b.AverageMood)
	})

	t.Run("InvariantHoldsAcrossManyFolds", func(t *testing.T) {
		scores := []float64{0, 10, 5.5, 3, 9.5, 7, 2.5, 8}
		var bucket *models.CityBucket
		sum := 0.0
		for i, score := range scores {
			next := FoldEntry(bucket, score)
			bucket = &next
			sum += score
			assert.Equal(t, int64(i+1), bucket.TotalLogs)
			assert.InDelta(t, sum, bucket.MoodSum, 1e-9)
			assert.Equal(t, Round2(bucket.MoodSum/float64(bucket.TotalLogs)), bucket.AverageMood)
		}
	})

	t.Run("IdentityFieldsPreserved", func(t *testing.T) {
		seed := models.CityBucket{
			BucketKey: "Lisbon_Lisboa_PT",
			City:      "Lisbon",
			Latitude:  38.72,
			Longitude: -9.14,
			TotalLogs: 1,
			MoodSum:   8,
		}
		next := FoldEntry(&seed, 6)
		assert.Equal(t, "Lisbon_Lisboa_PT", next.BucketKey)
		assert.Equal(t, 38.72, next.Latitude, "representative coordinate is never re-centered")
	})
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 7.33, Round2(7.3333))
	assert.Equal(t, 7.67, Round2(7.6666))
	assert.Equal(t, 8.0, Round2(8.0))
	assert.Equal(t, 0.0, Round2(0.004))
}
