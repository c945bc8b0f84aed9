package citymood

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
	"github.com/moodatlas/mood-atlas/internal/app/observability/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type Handlers struct {
	service  Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handlers) ListCities(c *gin.Context) {
	minLogs := int64(0)
	if raw := c.Query("min_logs"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_logs must be a non-negative integer"})
			return
		}
		minLogs = parsed
	}

	buckets, err := h.service.ListBuckets(c.Request.Context(), minLogs)
	if err != nil {
		h.logger.Error("Failed to list city buckets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list cities"})
		return
	}
	if buckets == nil {
		buckets = []models.CityBucket{}
	}
	c.JSON(http.StatusOK, gin.H{"cities": buckets, "count": len(buckets)})
}

// HandleLiveFeed upgrades to a WebSocket and streams the full post-fold
// bucket state after each fold until the client disconnects.
func (h *Handlers) HandleLiveFeed(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe()
	defer cancel()

	m := metrics.Get()
	m.LiveFeedSubscribers.Add(c.Request.Context(), 1)
	defer m.LiveFeedSubscribers.Add(c.Request.Context(), -1)

	h.logger.Info("City live feed subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	// Reader goroutine: we never expect client messages, but reading is
	// what surfaces the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case bucket, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(bucket); err != nil {
				h.logger.Debug("Live feed write failed, dropping subscriber", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
