package router

import (
	"github.com/gin-gonic/gin"

	"archieos.app/intake/internal/http/handler"
	"archieos.app/intake/internal/http/handler/webhook"
	"archieos.app/intake/internal/http/middleware"
	"archieos.app/intake/internal/mapper"
	"archieos.app/intake/internal/service"
)

type RouterConfig struct {
	ServiceName        string
	AdminAPIKey        string
	DefaultMaxMessages int
}

// Dependencies are the collaborators the routes hand off to.
type Dependencies struct {
	Services  *service.Services
	Buffer    webhook.EventBuffer
	Processor handler.IntakeProcessor
}

func SetupRoutes(router *gin.Engine, deps Dependencies, cfg RouterConfig) {
	healthHandler := handler.NewHealthHandler(cfg.ServiceName)
	router.GET("/health", healthHandler.Check)
	router.POST("/health", healthHandler.Check)

	slackHandler := webhook.NewSlackWebhookHandler(
		deps.Services.Verifier(),
		deps.Services.Deduplicator(),
		mapper.NewSlackEventMapper(),
		deps.Buffer,
	)
	SlackRouter(router.Group("/slack"), slackHandler)

	intakeHandler := handler.NewIntakeHandler(deps.Processor, cfg.DefaultMaxMessages)
	IntakeRouter(router.Group("/intake", middleware.RequireAdminKey(cfg.AdminAPIKey)), intakeHandler)
}

func SlackRouter(router *gin.RouterGroup, h *webhook.SlackWebhookHandler) {
	router.GET("/events", h.Status)
	router.POST("/events", h.HandleEvent)
}

func IntakeRouter(router *gin.RouterGroup, h *handler.IntakeHandler) {
	router.GET("/process", h.Process)
	router.POST("/process", h.Process)
}
