package citymood

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

// MockCityRepo is a mock implementation of the Repository interface
type MockCityRepo struct {
	mock.Mock
}

func (m *MockCityRepo) UpsertFold(ctx context.Context, loc models.Location, score float64) (*models.CityBucket, error) {
	args := m.Called(ctx, loc, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CityBucket), args.Error(1)
}

func (m *MockCityRepo) ListBuckets(ctx context.Context, minLogs int64) ([]models.CityBucket, error) {
	args := m.Called(ctx, minLogs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CityBucket), args.Error(1)
}

var lisbon = models.Location{
	Latitude: 38.72, Longitude: -9.14,
	City: "Lisbon", Region: "Lisboa", Country: "Portugal", CountryCode: "PT",
}

func TestFoldEntryService(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownLocationRejected", func(t *testing.T) {
		repo := new(MockCityRepo)
		svc := NewService(repo, NewHub(zap.NewNop()), DefaultMinLogs, zap.NewNop())

		_, err := svc.FoldEntry(ctx, models.Location{City: models.UnknownCity}, 8)
		assert.ErrorIs(t, err, models.ErrValidation)
		repo.AssertNotCalled(t, "UpsertFold")
	})

	t.Run("PublishesAboveThreshold", func(t *testing.T) {
		repo := new(MockCityRepo)
		hub := NewHub(zap.NewNop())
		svc := NewService(repo, hub, DefaultMinLogs, zap.NewNop())

		updates, cancel := hub.Subscribe()
		defer cancel()

		bucket := &models.CityBucket{BucketKey: "Lisbon_Lisboa_PT", TotalLogs: 6, MoodSum: 42, AverageMood: 7}
		repo.On("UpsertFold", ctx, lisbon, 8.0).Return(bucket, nil).Once()

		got, err := svc.FoldEntry(ctx, lisbon, 8)
		assert.NoError(t, err)
		assert.Equal(t, bucket, got)

		select {
		case pushed := <-updates:
			assert.Equal(t, "Lisbon_Lisboa_PT", pushed.BucketKey)
		case <-time.After(time.Second):
			t.Fatal("expected a live feed update")
		}
	})

	t.Run("BelowThresholdNotPublished", func(t *testing.T) {
		repo := new(MockCityRepo)
		hub := NewHub(zap.NewNop())
		svc := NewService(repo, hub, DefaultMinLogs, zap.NewNop())

		updates, cancel := hub.Subscribe()
		defer cancel()

		bucket := &models.CityBucket{BucketKey: "Faro_Faro_PT", TotalLogs: 2, MoodSum: 12, AverageMood: 6}
		repo.On("UpsertFold", ctx, lisbon, 6.0).Return(bucket, nil).Once()

		_, err := svc.FoldEntry(ctx, lisbon, 6)
		assert.NoError(t, err)

		select {
		case <-updates:
			t.Fatal("bucket under the privacy threshold must not reach subscribers")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestListBucketsService(t *testing.T) {
	ctx := context.Background()

	t.Run("ThresholdIsAFloor", func(t *testing.T) {
		repo := new(MockCityRepo)
		svc := NewService(repo, NewHub(zap.NewNop()), DefaultMinLogs, zap.NewNop())

		// Asking for min_logs=1 must still apply the configured floor of 5.
		repo.On("ListBuckets", ctx, int64(DefaultMinLogs)).Return([]models.CityBucket{}, nil).Once()
		_, err := svc.ListBuckets(ctx, 1)
		assert.NoError(t, err)

		// Raising the threshold is allowed.
		repo.On("ListBuckets", ctx, int64(10)).Return([]models.CityBucket{}, nil).Once()
		_, err = svc.ListBuckets(ctx, 10)
		assert.NoError(t, err)

		repo.AssertExpectations(t)
	})
}

func TestUpsertFoldSQL(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewPostgresCityRepo(mockPool, zap.NewNop())
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"bucket_key", "city", "region", "country", "country_code",
		"latitude", "longitude", "total_logs", "mood_sum", "average_mood", "updated_at",
	}).AddRow(
		"Lisbon_Lisboa_PT", "Lisbon", "Lisboa", "Portugal", "PT",
		38.72, -9.14, int64(2), 14.0, 7.0, now,
	)

	mockPool.ExpectQuery("INSERT INTO city_mood").
		WithArgs("Lisbon_Lisboa_PT", "Lisbon", "Lisboa", "Portugal", "PT", 38.72, -9.14, 6.0).
		WillReturnRows(rows)

	bucket, err := repo.UpsertFold(context.Background(), lisbon, 6.0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), bucket.TotalLogs)
	assert.Equal(t, 14.0, bucket.MoodSum)
	assert.Equal(t, 7.0, bucket.AverageMood)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestListBucketsSQL(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewPostgresCityRepo(mockPool, zap.NewNop())
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"bucket_key", "city", "region", "country", "country_code",
		"latitude", "longitude", "total_logs", "mood_sum", "average_mood", "updated_at",
	}).
		AddRow("Lisbon_Lisboa_PT", "Lisbon", "Lisboa", "Portugal", "PT", 38.72, -9.14, int64(10), 75.0, 7.5, now).
		AddRow("Porto_Porto_PT", "Porto", "Porto", "Portugal", "PT", 41.15, -8.61, int64(5), 34.0, 6.8, now)

	mockPool.ExpectQuery("FROM city_mood").
		WithArgs(int64(5)).
		WillReturnRows(rows)

	buckets, err := repo.ListBuckets(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "Lisbon_Lisboa_PT", buckets[0].BucketKey)
	assert.GreaterOrEqual(t, buckets[0].TotalLogs, buckets[1].TotalLogs)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
