package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/moodatlas/mood-atlas/internal/app/domain/auth"
	"github.com/moodatlas/mood-atlas/internal/app/domain/citymood"
	"github.com/moodatlas/mood-atlas/internal/app/domain/events"
	"github.com/moodatlas/mood-atlas/internal/app/domain/geocode"
	"github.com/moodatlas/mood-atlas/internal/app/domain/insights"
	"github.com/moodatlas/mood-atlas/internal/app/domain/mood"
	"github.com/moodatlas/mood-atlas/internal/app/middleware"
	"github.com/moodatlas/mood-atlas/internal/pkg/config"
)

type AppHandlers struct {
	Auth     *auth.AuthHandlers
	Mood     *mood.Handlers
	CityMood *citymood.Handlers
	Events   *events.Handlers
	Insights *insights.Handlers
}

// Setup wires repositories, services and handlers, then registers all routes.
func Setup(r *gin.Engine, cfg *config.Config, dbPool *pgxpool.Pool, log *zap.Logger) {
	handlers := setupDependencies(cfg, dbPool, log)
	setupRouter(r, cfg, dbPool, handlers, log)
}

func setupDependencies(cfg *config.Config, dbPool *pgxpool.Pool, log *zap.Logger) *AppHandlers {
	authRepo := auth.NewPostgresAuthRepo(dbPool, log)
	authService := auth.NewAuthService(authRepo, cfg, log)

	geocoder := geocode.NewService(cfg.NominatimBaseURL, log)

	hub := citymood.NewHub(log)
	cityRepo := citymood.NewPostgresCityRepo(dbPool, log)
	cityService := citymood.NewService(cityRepo, hub, cfg.CityMoodThreshold, log)

	moodRepo := mood.NewPostgresMoodRepo(dbPool, log)
	moodService := mood.NewService(moodRepo, geocoder, cityService, log)

	eventsService := events.NewService(cfg.TicketmasterKey, "", log)

	// Insights are the one integration that cannot degrade to a canned
	// response, so without a key the handler stays nil and the route
	// answers 503.
	var insightsHandlers *insights.Handlers
	if cfg.GeminiAPIKey != "" {
		aiClient, err := insights.NewGeminiClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Error("Failed to create Gemini client, insights disabled", zap.Error(err))
		} else {
			insightsHandlers = insights.NewHandlers(insights.NewService(moodRepo, aiClient, log), log)
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, insights disabled")
	}

	return &AppHandlers{
		Auth:     auth.NewAuthHandlers(authService, log),
		Mood:     mood.NewHandlers(moodService, log),
		CityMood: citymood.NewHandlers(cityService, log),
		Events:   events.NewHandlers(eventsService, log),
		Insights: insightsHandlers,
	}
}

func setupRouter(r *gin.Engine, cfg *config.Config, dbPool *pgxpool.Pool, h *AppHandlers, log *zap.Logger) {
	r.GET("/health", func(c *gin.Context) {
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWT.SecretKey))
	{
		protected.GET("/auth/me", h.Auth.Me)
		protected.PUT("/auth/password", h.Auth.ChangePassword)

		protected.POST("/moods", h.Mood.CreateMood)
		protected.GET("/moods", h.Mood.ListMoods)
		protected.GET("/moods/today", h.Mood.GetToday)
		protected.GET("/moods/streak", h.Mood.GetStreak)
		if cfg.Env != "production" {
			protected.DELETE("/moods/today", h.Mood.ClearToday)
		}

		protected.GET("/events", h.Events.ListEvents)
		protected.GET("/events/recommended", h.Events.RecommendedEvents)

		if h.Insights != nil {
			protected.GET("/insights", h.Insights.GetInsights)
		} else {
			protected.GET("/insights", func(c *gin.Context) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insights are not configured"})
			})
		}
	}

	// The city map is aggregate and anonymized, so it stays public. The
	// WebSocket feed authenticates via the ?token= query parameter.
	api.GET("/cities", h.CityMood.ListCities)
	api.GET("/cities/live", middleware.AuthMiddleware(cfg.JWT.SecretKey), h.CityMood.HandleLiveFeed)

	r.NoRoute(func(c *gin.Context) {
		log.Debug("404 - route not found",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
