package citymood

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

// DefaultMinLogs is the privacy threshold: buckets with fewer entries are
// not exposed to any reader, the live feed included.
const DefaultMinLogs = 5

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	FoldEntry(ctx context.Context, loc models.Location, score float64) (*models.CityBucket, error)
	ListBuckets(ctx context.Context, minLogs int64) ([]models.CityBucket, error)
	Subscribe() (<-chan models.CityBucket, func())
}

type ServiceImpl struct {
	logger  *zap.Logger
	repo    Repository
	hub     *Hub
	minLogs int64
}

func NewService(repo Repository, hub *Hub, minLogs int64, logger *zap.Logger) *ServiceImpl {
	if minLogs <= 0 {
		minLogs = DefaultMinLogs
	}
	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		hub:     hub,
		minLogs: minLogs,
	}
}

// FoldEntry applies one accepted entry's score to its city bucket and
// pushes the post-fold state to live subscribers. Unknown locations never
// reach the aggregate.
func (s *ServiceImpl) FoldEntry(ctx context.Context, loc models.Location, score float64) (*models.CityBucket, error) {
	ctx, span := otel.Tracer("CityMoodService").Start(ctx, "FoldEntry")
	defer span.End()

	l := s.logger.With(zap.String("method", "FoldEntry"))

	if loc.IsUnknown() {
		return nil, fmt.Errorf("unresolved location excluded from aggregation: %w", models.ErrValidation)
	}

	bucket, err := s.repo.UpsertFold(ctx, loc, score)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, err
	}

	// Buckets under the privacy threshold stay invisible to subscribers.
	if bucket.TotalLogs >= s.minLogs {
		s.hub.Publish(*bucket)
	}

	l.Debug("Folded entry into city bucket",
		zap.String("bucketKey", bucket.BucketKey),
		zap.Int64("totalLogs", bucket.TotalLogs),
		zap.Float64("averageMood", bucket.AverageMood))
	span.SetAttributes(
		attribute.String("bucket.key", bucket.BucketKey),
		attribute.Int64("bucket.total_logs", bucket.TotalLogs),
	)
	span.SetStatus(codes.Ok, "Fold applied")
	return bucket, nil
}

// ListBuckets returns visible buckets. Callers may raise the threshold but
// never lower it beneath the configured privacy floor.
func (s *ServiceImpl) ListBuckets(ctx context.Context, minLogs int64) ([]models.CityBucket, error) {
	ctx, span := otel.Tracer("CityMoodService").Start(ctx, "ListBuckets")
	defer span.End()

	l := s.logger.With(zap.String("method", "ListBuckets"))

	if minLogs < s.minLogs {
		minLogs = s.minLogs
	}

	buckets, err := s.repo.ListBuckets(ctx, minLogs)
	if err != nil {
		l.Error("Failed to list city buckets", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, fmt.Errorf("failed to list city buckets: %w", err)
	}

	span.SetAttributes(attribute.Int("buckets.count", len(buckets)))
	span.SetStatus(codes.Ok, "Buckets retrieved")
	return buckets, nil
}

func (s *ServiceImpl) Subscribe() (<-chan models.CityBucket, func()) {
	return s.hub.Subscribe()
}
