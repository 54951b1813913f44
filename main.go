package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"campus-chat-service/internal/auth"
	"campus-chat-service/internal/chat"
	"campus-chat-service/internal/config"
	"campus-chat-service/internal/db"
	"campus-chat-service/internal/handlers"
	"campus-chat-service/internal/middleware"
	"campus-chat-service/internal/observability"
	"campus-chat-service/internal/presence"
	"campus-chat-service/internal/rabbitmq"
	"campus-chat-service/internal/repositories"
	"campus-chat-service/internal/telemetry"
	"campus-chat-service/internal/ws"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	if eventsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(eventsPublisher)
		defer eventsPublisher.Close()
	} else {
		log.Printf("ws event publishing disabled: %v", err)
	}

	audit := telemetry.NewAuditEmitter(publisher, "audit.chat", cfg.ServiceName, cfg.Environment)

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	blockRepo := repositories.NewBlockRepo(database)

	registry := presence.NewRegistry()
	hub := ws.NewHub()
	chatSvc := chat.NewService(chatRepo, messageRepo, blockRepo, registry, hub)

	verifier := auth.NewVerifier(cfg.JWTSecret)

	chatHandler := handlers.NewChatHandler(chatSvc, chatRepo, publisher, audit)
	blockHandler := handlers.NewBlockHandler(blockRepo)
	wsHandler := ws.NewHandler(hub, chatSvc, registry, verifier)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id", "X-Device-Id"}
	router.Use(cors.New(corsConfig))

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.GET("/chats/pending", authMiddleware, chatHandler.ListPending)
	router.POST("/chats/start", authMiddleware, chatHandler.StartChat)
	router.POST("/chats/:chat_id/approve", authMiddleware, chatHandler.ApproveChat)
	router.POST("/chats/:chat_id/reject", authMiddleware, chatHandler.RejectChat)
	router.POST("/chats/:chat_id/delete-request", authMiddleware, chatHandler.RequestDelete)
	router.POST("/chats/:chat_id/delete-approve", authMiddleware, chatHandler.ApproveDelete)
	router.POST("/chats/:chat_id/delete-decline", authMiddleware, chatHandler.DeclineDelete)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetChatMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, chatHandler.PostChatMessage)
	router.DELETE("/chats/:chat_id/messages/:message_id", authMiddleware, chatHandler.DeleteMessage)
	router.POST("/chats/:chat_id/read", authMiddleware, chatHandler.MarkRead)

	router.POST("/blocks", authMiddleware, blockHandler.Block)
	router.DELETE("/blocks/:user_id", authMiddleware, blockHandler.Unblock)
	router.GET("/blocks", authMiddleware, blockHandler.ListBlocked)

	router.GET("/ws", wsHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
