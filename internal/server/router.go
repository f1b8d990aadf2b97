package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/knograph/knograph-backend/internal/handlers"
	"github.com/knograph/knograph-backend/internal/middleware"
	"github.com/knograph/knograph-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ChatHandler    *handlers.ChatHandler
	SessionHandler *handlers.SessionHandler
	GraphHandler   *handlers.GraphHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(otelgin.Middleware("knograph-backend"))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/chat", cfg.ChatHandler.HandleChat)
		api.GET("/session/:userID", cfg.SessionHandler.GetSession)
		api.POST("/session/:userID/reset", cfg.SessionHandler.ResetSession)
		api.GET("/graph/search", cfg.GraphHandler.Search)
		api.GET("/graph/stats", cfg.GraphHandler.Stats)
		api.POST("/graph/reload", cfg.GraphHandler.Reload)
	}

	return router
}
