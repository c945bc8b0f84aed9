package citymood

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

func TestHubSubscribePublish(t *testing.T) {
	hub := NewHub(zap.NewNop())

	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	assert.Equal(t, 2, hub.SubscriberCount())

	hub.Publish(models.CityBucket{BucketKey: "Lisbon_Lisboa_PT"})

	for _, ch := range []<-chan models.CityBucket{a, b} {
		select {
		case got := <-ch:
			assert.Equal(t, "Lisbon_Lisboa_PT", got.BucketKey)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the update")
		}
	}

	cancelA()
	assert.Equal(t, 1, hub.SubscriberCount())

	// Cancel is idempotent and the channel is closed.
	cancelA()
	_, open := <-a
	assert.False(t, open)
}

func TestHubSlowSubscriberKeepsNewest(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch, cancel := hub.Subscribe()
	defer cancel()

	// Overfill the buffer without draining.
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(models.CityBucket{TotalLogs: int64(i + 1)})
	}

	var last models.CityBucket
	for {
		select {
		case b := <-ch:
			last = b
			continue
		default:
		}
		break
	}

	// The newest update survives eviction.
	require.Equal(t, int64(subscriberBuffer+5), last.TotalLogs)
}

func TestHubPublishWithNoSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	assert.NotPanics(t, func() {
		hub.Publish(models.CityBucket{BucketKey: "Porto_Porto_PT"})
	})
}
