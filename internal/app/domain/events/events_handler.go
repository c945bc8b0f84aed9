package events

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/models"
)

type Handlers struct {
	service Service
	logger  *zap.Logger
}

func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// ListEvents handles GET /events?lat=&lon=&radius=&category=
func (h *Handlers) ListEvents(c *gin.Context) {
	lat, lon, ok := parseCoords(c)
	if !ok {
		return
	}

	radius := DefaultRadiusMiles
	if raw := c.Query("radius"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > WideRadiusMiles {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be between 1 and 100 miles"})
			return
		}
		radius = parsed
	}

	found, err := h.service.EventsNearby(c.Request.Context(), lat, lon, radius, c.Query("category"))
	if err != nil {
		h.logger.Error("Failed to list events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}
	if found == nil {
		found = []models.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": found, "count": len(found)})
}

// RecommendedEvents handles GET /events/recommended?lat=&lon=&size=
func (h *Handlers) RecommendedEvents(c *gin.Context) {
	lat, lon, ok := parseCoords(c)
	if !ok {
		return
	}

	size := DefaultPageSize
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be between 1 and 50"})
			return
		}
		size = parsed
	}

	found, err := h.service.MoodBasedEvents(c.Request.Context(), lat, lon, size)
	if err != nil {
		h.logger.Error("Failed to recommend events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to recommend events"})
		return
	}
	if found == nil {
		found = []models.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": found, "count": len(found)})
}

func parseCoords(c *gin.Context) (float64, float64, bool) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required and must be valid coordinates"})
		return 0, 0, false
	}
	return lat, lon, true
}
