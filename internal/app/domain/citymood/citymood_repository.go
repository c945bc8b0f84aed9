package citymood

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

var _ Repository = (*PostgresCityRepo)(nil)

// PGXPool is the pool subset the repository needs; pgxmock satisfies it.
type PGXPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository interface {
	// UpsertFold applies one score to the bucket as a single atomic
	// statement and returns the post-fold state.
	UpsertFold(ctx context.Context, loc models.Location, score float64) (*models.CityBucket, error)
	// ListBuckets returns buckets with at least minLogs entries, most
	// active first.
	ListBuckets(ctx context.Context, minLogs int64) ([]models.CityBucket, error)
}

type PostgresCityRepo struct {
	logger *zap.Logger
	db     PGXPool
}

func NewPostgresCityRepo(db PGXPool, logger *zap.Logger) *PostgresCityRepo {
	return &PostgresCityRepo{logger: logger, db: db}
}

const bucketColumns = `bucket_key, city, region, country, country_code,
	latitude, longitude, total_logs, mood_sum, average_mood, updated_at`

// UpsertFold runs the fold inside Postgres: the running mean is recomputed
// from the stored count and sum in the same statement, so two concurrent
// folds for the same key serialize on the row instead of racing a
// client-side read-modify-write. The first contributing entry's coordinate
// becomes the bucket's representative coordinate and is never re-centered.
func (r *PostgresCityRepo) UpsertFold(ctx context.Context, loc models.Location, score float64) (*models.CityBucket, error) {
	key := BucketKey(loc.City, loc.Region, loc.CountryCode)

	query := `
		INSERT INTO city_mood
			(bucket_key, city, region, country, country_code,
			 latitude, longitude, total_logs, mood_sum, average_mood, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, ROUND($8::numeric, 2)::float8, now())
		ON CONFLICT (bucket_key) DO UPDATE SET
			total_logs   = city_mood.total_logs + 1,
			mood_sum     = city_mood.mood_sum + EXCLUDED.mood_sum,
			average_mood = ROUND(((city_mood.mood_sum + EXCLUDED.mood_sum) /
			               (city_mood.total_logs + 1))::numeric, 2)::float8,
			updated_at   = now()
		RETURNING ` + bucketColumns

	var b models.CityBucket
	err := r.db.QueryRow(ctx, query,
		key, loc.City, loc.Region, loc.Country, loc.CountryCode,
		loc.Latitude, loc.Longitude, score,
	).Scan(
		&b.BucketKey, &b.City, &b.Region, &b.Country, &b.CountryCode,
		&b.Latitude, &b.Longitude, &b.TotalLogs, &b.MoodSum, &b.AverageMood, &b.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to fold entry into city bucket",
			zap.String("bucketKey", key), zap.Error(err))
		return nil, fmt.Errorf("database error folding city bucket: %w", err)
	}
	return &b, nil
}

func (r *PostgresCityRepo) ListBuckets(ctx context.Context, minLogs int64) ([]models.CityBucket, error) {
	query := `SELECT ` + bucketColumns + `
		FROM city_mood
		WHERE total_logs >= $1
		ORDER BY total_logs DESC
	`
	rows, err := r.db.Query(ctx, query, minLogs)
	if err != nil {
		return nil, fmt.Errorf("database error listing city buckets: %w", err)
	}
	defer rows.Close()

	var buckets []models.CityBucket
	for rows.Next() {
		var b models.CityBucket
		err := rows.Scan(
			&b.BucketKey, &b.City, &b.Region, &b.Country, &b.CountryCode,
			&b.Latitude, &b.Longitude, &b.TotalLogs, &b.MoodSum, &b.AverageMood, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning city bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
