package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/comptrack/comptrack-backend/internal/http/handlers"
	"github.com/comptrack/comptrack-backend/internal/http/middleware"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *middleware.AuthMiddleware

	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Components *handlers.ComponentHandler
	Towers     *handlers.TowerHandler
	Uploads    *handlers.UploadHandler
	Analytics  *handlers.AnalyticsHandler
	Activities *handlers.ActivityHandler
	Realtime   *handlers.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(otelgin.Middleware("comptrack"))

	router.GET("/healthcheck", cfg.Health.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/register", cfg.Auth.Register)
		api.POST("/login", cfg.Auth.Login)
	}

	protected := api.Group("")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.GET("/components", cfg.Components.List)
		protected.GET("/components/export", cfg.Components.ExportCSV)
		protected.GET("/components/:id", cfg.Components.Get)
		protected.GET("/components/:id/activities", cfg.Components.Activities)
		protected.POST("/components", cfg.Components.Create)
		protected.PUT("/components/:id", cfg.Components.Update)
		protected.DELETE("/components/:id", cfg.Components.Delete)

		protected.GET("/towers", cfg.Towers.List)
		protected.GET("/towers/:id", cfg.Towers.Get)
		protected.POST("/towers", cfg.Towers.Create)
		protected.PUT("/towers/:id", cfg.Towers.Update)
		protected.DELETE("/towers/:id", cfg.Towers.Delete)

		protected.POST("/upload", cfg.Uploads.Commit)
		protected.POST("/upload/preview", cfg.Uploads.Preview)
		protected.GET("/upload/history", cfg.Uploads.History)

		protected.GET("/analytics/dashboard", cfg.Analytics.Dashboard)
		protected.GET("/activities", cfg.Activities.Recent)

		protected.GET("/events/stream", cfg.Realtime.Stream)
	}

	return router
}
