package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/john-mcs/homely/internal/api/handlers"
	"github.com/john-mcs/homely/internal/api/middleware"
)

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	Status handlers.StatusProvider
	Logger *slog.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(config RouterConfig) *gin.Engine {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.Logging(config.Logger))

	// Health check
	healthHandler := handlers.NewHealthHandler()
	router.GET("/health", healthHandler.GetHealth)

	// Read-only view over the coordinator's last known state
	v1 := router.Group("/v1")
	{
		statusHandler := handlers.NewStatusHandler(config.Status, config.Logger)
		v1.GET("/status", statusHandler.GetStatus)

		devicesHandler := handlers.NewDevicesHandler(config.Status, config.Logger)
		v1.GET("/devices", devicesHandler.ListDevices)
	}

	return router
}
