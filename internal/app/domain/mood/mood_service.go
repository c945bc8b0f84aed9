package mood

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

// Geocoder resolves coordinates to a place. Failures surface as the Unknown
// sentinel location, never as an error.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) models.Location
}

// CityFolder folds an accepted entry's score into its city aggregate.
type CityFolder interface {
	FoldEntry(ctx context.Context, loc models.Location, score float64) (*models.CityBucket, error)
}

// LogMoodRequest is a candidate entry from a user action.
type LogMoodRequest struct {
	MoodScore   float64            `json:"mood_score"`
	Note        string             `json:"note"`
	CheckInType models.CheckInType `json:"check_in_type"`
	Latitude    *float64           `json:"latitude,omitempty"`
	Longitude   *float64           `json:"longitude,omitempty"`
}

// SlotAvailability is the per-slot UI state for the current instant.
type SlotAvailability struct {
	Slot      models.CheckInType `json:"slot"`
	Available bool               `json:"available"`
	Message   string             `json:"message"`
}

// TodayView bundles everything the dashboard needs for the current day.
type TodayView struct {
	Entries      []models.MoodEntry  `json:"entries"`
	Summary      models.DailySummary `json:"summary"`
	Availability []SlotAvailability  `json:"availability"`
}

type Service interface {
	LogMood(ctx context.Context, userID string, req LogMoodRequest, now time.Time) (*models.MoodEntry, error)
	History(ctx context.Context, userID string, since time.Time, limit int) ([]models.MoodEntry, error)
	Today(ctx context.Context, userID string, now time.Time) (*TodayView, error)
	Streak(ctx context.Context, userID string, now time.Time) (int, error)
	ClearToday(ctx context.Context, userID string, now time.Time) (int64, error)
}

type ServiceImpl struct {
	logger   *zap.Logger
	repo     Repository
	geocoder Geocoder
	cities   CityFolder
}

func NewService(repo Repository, geocoder Geocoder, cities CityFolder, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		repo:     repo,
		geocoder: geocoder,
		cities:   cities,
	}
}

// dayBounds returns [local midnight, next local midnight) for now.
func dayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// LogMood validates and gates a candidate entry, persists it, and folds it
// into the city aggregate. Scheduling and limit rejections are returned
// before any write; a failed fold after a successful write is logged but
// not returned, since the entry is the source of truth and the aggregate
// may lag.
func (s *ServiceImpl) LogMood(ctx context.Context, userID string, req LogMoodRequest, now time.Time) (*models.MoodEntry, error) {
	ctx, span := otel.Tracer("MoodService").Start(ctx, "LogMood")
	defer span.End()

	l := s.logger.With(zap.String("method", "LogMood"), zap.String("userID", userID))

	if !req.CheckInType.Valid() {
		return nil, fmt.Errorf("unknown check-in type %q: %w", req.CheckInType, models.ErrValidation)
	}
	if err := models.ValidateMoodScore(req.MoodScore); err != nil {
		return nil, err
	}
	if len(req.Note) > models.MaxNoteLength {
		return nil, fmt.Errorf("note exceeds %d characters: %w", models.MaxNoteLength, models.ErrValidation)
	}

	start, end := dayBounds(now)
	today, err := s.repo.ListEntriesBetween(ctx, userID, start, end)
	if err != nil {
		l.Error("Failed to load today's entries", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, fmt.Errorf("failed to load today's entries: %w", err)
	}

	if err := Evaluate(req.CheckInType, now, today); err != nil {
		l.Info("Mood log rejected", zap.String("slot", string(req.CheckInType)), zap.Error(err))
		return nil, err
	}

	entry := &models.MoodEntry{
		UserID:      userID,
		MoodScore:   req.MoodScore,
		Note:        req.Note,
		CheckInType: req.CheckInType,
		RecordedAt:  now,
	}

	if req.Latitude != nil && req.Longitude != nil {
		loc := s.geocoder.Reverse(ctx, *req.Latitude, *req.Longitude)
		entry.Location = &loc
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}

	if entry.Location != nil && !entry.Location.IsUnknown() {
		if _, err := s.cities.FoldEntry(ctx, *entry.Location, entry.MoodScore); err != nil {
			// The entry stands; the aggregate catches up later.
			l.Warn("City fold failed after entry write",
				zap.String("city", entry.Location.City), zap.Error(err))
		}
	}

	l.Info("Mood entry logged",
		zap.String("slot", string(req.CheckInType)),
		zap.Float64("score", req.MoodScore))
	span.SetAttributes(attribute.String("mood.slot", string(req.CheckInType)))
	span.SetStatus(codes.Ok, "Entry logged")
	return entry, nil
}

func (s *ServiceImpl) History(ctx context.Context, userID string, since time.Time, limit int) ([]models.MoodEntry, error) {
	l := s.logger.With(zap.String("method", "History"), zap.String("userID", userID))
	entries, err := s.repo.ListEntries(ctx, userID, since, limit)
	if err != nil {
		l.Error("Failed to list mood history", zap.Error(err))
		return nil, err
	}
	return entries, nil
}

func (s *ServiceImpl) Today(ctx context.Context, userID string, now time.Time) (*TodayView, error) {
	l := s.logger.With(zap.String("method", "Today"), zap.String("userID", userID))

	start, end := dayBounds(now)
	entries, err := s.repo.ListEntriesBetween(ctx, userID, start, end)
	if err != nil {
		l.Error("Failed to load today's entries", zap.Error(err))
		return nil, err
	}

	view := &TodayView{
		Entries: entries,
		Summary: Summarize(entries),
		Availability: []SlotAvailability{
			{
				Slot:      models.CheckInMorning,
				Available: CanLogMorning(now, entries),
				Message:   AvailabilityMessage(models.CheckInMorning, now, entries),
			},
			{
				Slot:      models.CheckInEvening,
				Available: CanLogEvening(now, entries),
				Message:   AvailabilityMessage(models.CheckInEvening, now, entries),
			},
			{
				Slot:      models.CheckInAnytime,
				Available: CanLogAnytime(entries),
				Message:   AvailabilityMessage(models.CheckInAnytime, now, entries),
			},
		},
	}
	return view, nil
}

func (s *ServiceImpl) Streak(ctx context.Context, userID string, now time.Time) (int, error) {
	l := s.logger.With(zap.String("method", "Streak"), zap.String("userID", userID))
	entries, err := s.repo.ListEntries(ctx, userID, time.Time{}, 0)
	if err != nil {
		l.Error("Failed to load entries for streak", zap.Error(err))
		return 0, err
	}
	return ComputeStreak(entries, now), nil
}

// ClearToday wipes the caller's entries for the current calendar day. Debug
// escape hatch; the route is only registered outside production.
func (s *ServiceImpl) ClearToday(ctx context.Context, userID string, now time.Time) (int64, error) {
	l := s.logger.With(zap.String("method", "ClearToday"), zap.String("userID", userID))
	start, end := dayBounds(now)
	deleted, err := s.repo.DeleteEntriesBetween(ctx, userID, start, end)
	if err != nil {
		l.Error("Failed to delete today's entries", zap.Error(err))
		return 0, err
	}
	l.Info("Deleted today's entries", zap.Int64("count", deleted))
	return deleted, nil
}
