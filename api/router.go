package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/novastream/novastream-go/api/handlers"
	"github.com/novastream/novastream-go/api/middleware"
	"github.com/novastream/novastream-go/internal/app"
	"github.com/novastream/novastream-go/internal/domain"
	"go.uber.org/zap"
)

// RouterConfig holds what the HTTP layer needs besides the coordinator
type RouterConfig struct {
	Repository   domain.JobRepository
	LogsDir      string
	EngineBinary string
	Logger       *zap.Logger
}

// SetupRouter sets up the HTTP router
func SetupRouter(coord *app.JobCoordinator, cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(coord, cfg.EngineBinary)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		jobHandler := handlers.NewJobHandler(coord, cfg.Repository, log)
		v1.GET("/state", jobHandler.GetState)

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.SubmitJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/stats", jobHandler.GetStats)
			jobs.GET("/:id", jobHandler.GetJob)
		}

		eventHandler := handlers.NewEventWebSocketHandler(coord, log)
		v1.GET("/events/ws", eventHandler.HandleWebSocket)

		settingsHandler := handlers.NewSettingsHandler(coord)
		settings := v1.Group("/settings")
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("/:key", settingsHandler.UpdateSetting)
		}

		// Log endpoints
		if cfg.LogsDir != "" {
			logHandler := handlers.NewLogHandler(cfg.LogsDir)
			logs := v1.Group("/logs")
			{
				logs.GET("/categories", logHandler.GetCategories)
				logs.GET("/:category", logHandler.GetLogs)
				logs.GET("/:category/search", logHandler.SearchLogs)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
