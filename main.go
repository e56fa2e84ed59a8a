package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/handlers"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/realtime"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/ws"
)

const serviceName = "messenger-service"

func main() {
	cfg := config.Load()

	shutdownTracing := observability.InitTracing(context.Background(), serviceName, cfg.OTLPEndpoint, cfg.Environment)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("audit publisher mode=%s reason=%q", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))

	audit := telemetry.NewAuditEmitter(publisher, "audit.messenger", serviceName, cfg.Environment)

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	} else {
		log.Printf("ws event publisher disabled: %v", err)
	}

	messageRepo := repositories.NewMessageRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	groupMessageRepo := repositories.NewGroupMessageRepo(database)

	hub := ws.NewHub()
	rtRouter := realtime.NewRouter(hub, messageRepo, groupRepo, groupMessageRepo, audit)
	rtRouter.SetStoreTimeout(cfg.StoreTimeout)

	verifier := middleware.NewTokenVerifier(cfg.JWTSecret)

	messageHandler := handlers.NewMessageHandler(messageRepo, audit)
	groupHandler := handlers.NewGroupHandler(groupRepo, groupMessageRepo, audit)
	wsHandler := ws.NewHandler(hub, rtRouter, verifier)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/messages/unread", authMiddleware, messageHandler.Unread)
	router.GET("/messages/history/:user_id", authMiddleware, messageHandler.History)

	router.POST("/groups", authMiddleware, groupHandler.CreateGroup)
	router.GET("/groups", authMiddleware, groupHandler.ListGroups)
	router.GET("/groups/:group_id/members", authMiddleware, groupHandler.GetGroupMembers)
	router.GET("/groups/:group_id/messages", authMiddleware, groupHandler.GetGroupMessages)

	router.GET("/ws", wsHandler.Handle)

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
