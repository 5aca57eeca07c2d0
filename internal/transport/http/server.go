package http

import (
	"github.com/gin-gonic/gin"

	"manualpilot/internal/bootstrap"
	"manualpilot/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	manualHandler := handler.NewManualHandler(app.IngestService, app.ManualService, app.IngestPublisher)
	chatHandler := handler.NewChatHandler(app.AnswerService, app.History)

	v1 := router.Group("/api/v1")

	manuals := v1.Group("/manuals")
	manuals.POST("/ingest", manualHandler.Ingest)
	manuals.POST("/ingest/async", manualHandler.IngestAsync)
	manuals.GET("", manualHandler.List)
	manuals.DELETE("/:id", manualHandler.Delete)

	v1.POST("/chat", chatHandler.Chat)

	return router
}
