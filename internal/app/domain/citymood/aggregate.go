package citymood

import (
	"math"
	"strings"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

// Round2 rounds to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BucketKey builds the normalized aggregate key from a resolved place:
// city_region_countryCode with any whitespace replaced by underscores.
func BucketKey(city, region, countryCode string) string {
	key := city + "_" + region + "_" + countryCode
	return strings.Join(strings.Fields(key), "_")
}

// FoldEntry folds one mood score into a bucket's running mean. A nil bucket
// means first contribution: the caller fills in the identity fields. The
// returned bucket always satisfies AverageMood == Round2(MoodSum/TotalLogs).
//
// This is the reference fold; the stored aggregate applies the same
// arithmetic as an atomic upsert inside Postgres so concurrent folds for
// one bucket key cannot lose updates.
func FoldEntry(bucket *models.CityBucket, score float64) models.CityBucket {
	if bucket == nil {
		return models.CityBucket{
			TotalLogs:   1,
			MoodSum:     score,
			AverageMood: Round2(score),
		}
	}
	next := *bucket
	next.TotalLogs++
	next.MoodSum += score
	next.AverageMood = Round2(next.MoodSum / float64(next.TotalLogs))
	return next
}
