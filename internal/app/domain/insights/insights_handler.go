package insights

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/middleware"
	"github.com/moodatlas/mood-atlas/internal/app/models"
	"github.com/moodatlas/mood-atlas/internal/app/observability/metrics"
)

type Handlers struct {
	service Service
	logger  *zap.Logger
}

func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// GetInsights handles GET /insights.
func (h *Handlers) GetInsights(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	generated, err := h.service.GenerateInsights(c.Request.Context(), userID)
	metrics.Get().InsightRequestsTotal.Add(c.Request.Context(), 1,
		metric.WithAttributes(attribute.Bool("success", err == nil)))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "log some moods first to get insights"})
		case errors.Is(err, ErrMalformedResponse):
			c.JSON(http.StatusBadGateway, gin.H{"error": "AI service returned an unusable response"})
		default:
			h.logger.Error("Failed to generate insights", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate insights"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"insights": generated})
}
