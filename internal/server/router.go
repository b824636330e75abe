package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/harborcx/agentdesk-backend/internal/handlers"
	"github.com/harborcx/agentdesk-backend/internal/middleware"
	"github.com/harborcx/agentdesk-backend/internal/observability"
)

type RouterConfig struct {
	InsightsHandler     *handlers.InsightsHandler
	ConversationHandler *handlers.ConversationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(otelgin.Middleware("agentdesk-backend"))
	router.Use(middleware.AttachTraceContext())
	if observability.Enabled() {
		router.Use(middleware.ObserveRequests())
	}

	router.GET("/healthcheck", handlers.HealthCheck)
	if observability.Enabled() {
		router.GET("/metrics", gin.WrapF(observability.Current().WriteHTTP))
	}

	api := router.Group("/api")
	{
		api.POST("/insights", cfg.InsightsHandler.FetchInsights)
		api.POST("/conversations", cfg.ConversationHandler.Create)
		api.POST("/conversations/:id/messages", cfg.ConversationHandler.AppendMessage)
		api.GET("/conversations/:id", cfg.ConversationHandler.Get)
	}

	return router
}
