package citymood

import (
	"sync"

	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

const subscriberBuffer = 16

// Hub fans the post-fold bucket state out to live subscribers. Each fold
// pushes the full bucket, not a delta; a slow subscriber drops its oldest
// pending update so the latest state always gets through.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan models.CityBucket]struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan models.CityBucket]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the consumer goes away.
func (h *Hub) Subscribe() (<-chan models.CityBucket, func()) {
	ch := make(chan models.CityBucket, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the bucket state to every subscriber without blocking
// the fold path.
func (h *Hub) Publish(bucket models.CityBucket) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- bucket:
		default:
			// Full buffer: evict the oldest update, keep the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- bucket:
			default:
			}
		}
	}
}

// SubscriberCount reports the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
