package mood

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/moodatlas/mood-atlas/internal/app/middleware"
	"github.com/moodatlas/mood-atlas/internal/app/models"
	"github.com/moodatlas/mood-atlas/internal/app/observability/metrics"
)

// Reason codes returned to the client for rejected log attempts.
const (
	reasonSlotUnavailable    = "slot-unavailable"
	reasonGlobalLimitReached = "global-limit-reached"
	reasonAnytimeExhausted   = "anytime-exhausted"
)

type Handlers struct {
	service Service
	logger  *zap.Logger
}

func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

func (h *Handlers) CreateMood(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req LogMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := h.service.LogMood(c.Request.Context(), userID, req, time.Now())
	if err != nil {
		h.respondLogError(c, err)
		return
	}
	metrics.Get().MoodLogsTotal.Add(c.Request.Context(), 1,
		metric.WithAttributes(attribute.String("check_in_type", string(entry.CheckInType))))
	c.JSON(http.StatusCreated, entry)
}

func (h *Handlers) respondLogError(c *gin.Context, err error) {
	rejected := func(reason string) {
		metrics.Get().MoodLogsRejectedTotal.Add(c.Request.Context(), 1,
			metric.WithAttributes(attribute.String("reason", reason)))
	}
	switch {
	case errors.Is(err, models.ErrSlotUnavailable):
		rejected(reasonSlotUnavailable)
		c.JSON(http.StatusConflict, gin.H{"reason": reasonSlotUnavailable, "error": err.Error()})
	case errors.Is(err, models.ErrGlobalLimitReached):
		rejected(reasonGlobalLimitReached)
		c.JSON(http.StatusConflict, gin.H{"reason": reasonGlobalLimitReached, "error": err.Error()})
	case errors.Is(err, models.ErrAnytimeExhausted):
		rejected(reasonAnytimeExhausted)
		c.JSON(http.StatusConflict, gin.H{"reason": reasonAnytimeExhausted, "error": err.Error()})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to log mood", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log mood"})
	}
}

func (h *Handlers) ListMoods(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = parsed
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.service.History(c.Request.Context(), userID, since, limit)
	if err != nil {
		h.logger.Error("Failed to list mood history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list moods"})
		return
	}
	if entries == nil {
		entries = []models.MoodEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func (h *Handlers) GetToday(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	view, err := h.service.Today(c.Request.Context(), userID, time.Now())
	if err != nil {
		h.logger.Error("Failed to build today view", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load today"})
		return
	}
	if view.Entries == nil {
		view.Entries = []models.MoodEntry{}
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) GetStreak(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	streak, err := h.service.Streak(c.Request.Context(), userID, time.Now())
	if err != nil {
		h.logger.Error("Failed to compute streak", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute streak"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"streak": streak})
}

// ClearToday is a debug-only escape hatch; the route is registered only
// outside production.
func (h *Handlers) ClearToday(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	deleted, err := h.service.ClearToday(c.Request.Context(), userID, time.Now())
	if err != nil {
		h.logger.Error("Failed to clear today's entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear today"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
