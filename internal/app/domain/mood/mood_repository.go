package mood

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

var _ Repository = (*PostgresMoodRepo)(nil)

type Repository interface {
	// CreateEntry persists a new entry. ID and RecordedAt are assigned here
	// if unset; entries are immutable afterwards.
	CreateEntry(ctx context.Context, entry *models.MoodEntry) error
	// ListEntries returns a user's history, newest first. A zero since means
	// no lower bound; limit <= 0 means no limit.
	ListEntries(ctx context.Context, userID string, since time.Time, limit int) ([]models.MoodEntry, error)
	// ListEntriesBetween returns a user's entries in [start, end), newest first.
	ListEntriesBetween(ctx context.Context, userID string, start, end time.Time) ([]models.MoodEntry, error)
	// DeleteEntriesBetween removes a user's entries in [start, end). Debug
	// escape hatch only; there is no delete path in normal operation.
	DeleteEntriesBetween(ctx context.Context, userID string, start, end time.Time) (int64, error)
}

type PostgresMoodRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresMoodRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresMoodRepo {
	return &PostgresMoodRepo{logger: logger, pgpool: pgpool}
}

const entryColumns = `id, user_id, mood_score, note, check_in_type, recorded_at,
	latitude, longitude, city, region, country, country_code`

func (r *PostgresMoodRepo) CreateEntry(ctx context.Context, entry *models.MoodEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}

	var lat, lon *float64
	var city, region, country, countryCode *string
	if loc := entry.Location; loc != nil {
		lat, lon = &loc.Latitude, &loc.Longitude
		city, region, country, countryCode = &loc.City, &loc.Region, &loc.Country, &loc.CountryCode
	}

	query := `
		INSERT INTO mood_entries
			(id, user_id, mood_score, note, check_in_type, recorded_at,
			 latitude, longitude, city, region, country, country_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pgpool.Exec(ctx, query,
		entry.ID, entry.UserID, entry.MoodScore, entry.Note, string(entry.CheckInType),
		entry.RecordedAt, lat, lon, city, region, country, countryCode,
	)
	if err != nil {
		r.logger.Error("Failed to insert mood entry",
			zap.String("userID", entry.UserID), zap.Error(err))
		return fmt.Errorf("database error inserting mood entry: %w", err)
	}
	return nil
}

func (r *PostgresMoodRepo) ListEntries(ctx context.Context, userID string, since time.Time, limit int) ([]models.MoodEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM mood_entries
		WHERE user_id = $1 AND ($2::timestamptz IS NULL OR recorded_at >= $2)
		ORDER BY recorded_at DESC
	`
	var sincePtr *time.Time
	if !since.IsZero() {
		sincePtr = &since
	}
	args := []any{userID, sincePtr}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error listing mood entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *PostgresMoodRepo) ListEntriesBetween(ctx context.Context, userID string, start, end time.Time) ([]models.MoodEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM mood_entries
		WHERE user_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at DESC
	`
	rows, err := r.pgpool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("database error listing day entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *PostgresMoodRepo) DeleteEntriesBetween(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM mood_entries WHERE user_id = $1 AND recorded_at >= $2 AND recorded_at < $3`,
		userID, start, end,
	)
	if err != nil {
		return 0, fmt.Errorf("database error deleting day entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEntries(rows pgxRows) ([]models.MoodEntry, error) {
	var entries []models.MoodEntry
	for rows.Next() {
		var e models.MoodEntry
		var checkInType string
		var lat, lon *float64
		var city, region, country, countryCode *string
		err := rows.Scan(
			&e.ID, &e.UserID, &e.MoodScore, &e.Note, &checkInType, &e.RecordedAt,
			&lat, &lon, &city, &region, &country, &countryCode,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning mood entry: %w", err)
		}
		e.CheckInType = models.CheckInType(checkInType)
		if lat != nil && lon != nil {
			e.Location = &models.Location{Latitude: *lat, Longitude: *lon}
			if city != nil {
				e.Location.City = *city
			}
			if region != nil {
				e.Location.Region = *region
			}
			if country != nil {
				e.Location.Country = *country
			}
			if countryCode != nil {
				e.Location.CountryCode = *countryCode
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
