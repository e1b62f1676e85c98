// Package main is the entry point of the consultation service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"qanoon-go/internal/config"
	"qanoon-go/internal/handler"
	"qanoon-go/internal/middleware"
	"qanoon-go/internal/repository"
	"qanoon-go/internal/service"
	"qanoon-go/pkg/database"
	"qanoon-go/pkg/llm"
	"qanoon-go/pkg/log"
)

func main() {
	// 1. Initialize configuration
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. Initialize the logger
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // flush buffered entries on exit
	log.Info("logger initialized")

	// 3. Optional conversation-history store
	var conversationRepo repository.ConversationRepository
	if cfg.Redis.Enabled {
		database.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		conversationRepo = repository.NewConversationRepository(database.RDB)
	} else {
		log.Info("redis disabled, conversation history is off")
	}

	// 4. Load the data artifacts. The service refuses to start without them.
	chunkRepo, err := repository.NewChunkRepository(cfg.Store.ChunkPath)
	if err != nil {
		log.Fatalf("failed to load chunk store: %v", err)
	}
	log.Infof("chunk store loaded, %d chunks", len(chunkRepo.Snapshot()))

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if cfg.Store.Watch {
		if err := chunkRepo.Watch(watchCtx); err != nil {
			log.Fatalf("failed to watch chunk store: %v", err)
		}
		log.Info("chunk store watcher started")
	}

	lawyerRepo, err := repository.NewLawyerRepository(cfg.Store.LawyerPath)
	if err != nil {
		log.Fatalf("failed to load lawyer directory: %v", err)
	}
	log.Infof("lawyer directory loaded, %d records", len(lawyerRepo.Snapshot()))

	// 5. Initialize services (dependency injection)
	llmClient := llm.NewClient(cfg.LLM)
	retrievalService := service.NewRetrievalService(chunkRepo)
	lawyerService := service.NewLawyerService(lawyerRepo)
	conversationService := service.NewConversationService(conversationRepo)
	chatService := service.NewChatService(retrievalService, llmClient, conversationRepo)

	// 6. Set the Gin mode and create the router
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 7. Register routes
	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/consult", handler.NewConsultHandler(chatService).Consult)
		apiV1.GET("/consult/history", handler.NewConversationHandler(conversationService).GetHistory)

		lawyers := apiV1.Group("/lawyers")
		{
			lawyers.GET("", handler.NewLawyerHandler(lawyerService).List)
			lawyers.GET("/recommend", handler.NewLawyerHandler(lawyerService).Recommend)
		}
	}
	r.GET("/chat", handler.NewChatHandler(chatService).Handle)
	r.GET("/healthz", handler.NewHealthHandler(chunkRepo, lawyerRepo).Check)

	// 8. Start the HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, closing service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}
	log.Info("service stopped gracefully")
}
