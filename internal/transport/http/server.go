package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"datagov-chat/internal/ai"
	appsvc "datagov-chat/internal/app"
	"datagov-chat/internal/bootstrap"
	"datagov-chat/internal/cache"
	"datagov-chat/internal/platform/rabbitmq"
	"datagov-chat/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	eventPublisher := rabbitmq.NewEventPublisher(app.MQConn, app.Config.RabbitMQ.EventQueue)

	composer := ai.Completer{
		Client: app.AIClient,
		Config: ai.ChatConfig{
			BaseURL: app.Config.LLM.BaseURL,
			APIKey:  app.Config.LLM.APIKey,
			Model:   app.Config.LLM.Model,
		},
	}
	classifier := appsvc.NewIntentClassifier(ai.Completer{
		Client: app.AIClient,
		Config: ai.ChatConfig{
			BaseURL: app.Config.LLM.BaseURL,
			APIKey:  app.Config.LLM.APIKey,
			Model:   app.Config.ClassifierModel(),
		},
	}, app.Logger)
	embedder := ai.Embedder{
		Client: app.AIClient,
		Config: ai.EmbeddingConfig{
			BaseURL: app.Config.LLM.BaseURL,
			APIKey:  app.Config.LLM.APIKey,
			Model:   app.Config.LLM.EmbeddingModel,
		},
	}

	chatService := appsvc.NewChatService(
		app.Store,
		historyCache,
		eventPublisher,
		classifier,
		app.Index,
		embedder,
		composer,
		app.Logger,
		app.Config.Index.TopK,
	)
	chatHandler := handler.NewChatHandler(chatService)

	v1 := router.Group("/api/v1")
	chatGroup := v1.Group("/chat")
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.DELETE("/sessions/:id", chatHandler.ClearSession)

	return router
}
