package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/raluca-web/ai-bot/internal/ai"
	"github.com/raluca-web/ai-bot/internal/config"
	"github.com/raluca-web/ai-bot/internal/logger"
	"github.com/raluca-web/ai-bot/internal/telemetry"
	"github.com/raluca-web/ai-bot/middleware"
	"github.com/raluca-web/ai-bot/routes"
	"github.com/raluca-web/ai-bot/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("ai-bot", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	geminiClient, err := ai.NewClient(cfg)
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	defer geminiClient.Close()

	// Redis backs the rate limiter and the per-document write locks. Both
	// fail open, so a missing Redis only degrades them.
	var locker services.DocumentLocker = services.NoopLocker{}
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, rate limiting and document locks disabled", "error", err)
	} else {
		locker = services.NewRedisLocker(rdb)
	}

	store := services.NewMongoVectorStore(db, cfg.VectorDim)
	messages := services.NewMongoMessageStore(db)

	var vision services.VisionExtractor
	if cfg.OCRFallback {
		vision = geminiClient
	}
	extractor := services.NewExtractor(cfg, vision)

	pipeline := services.NewIngestionPipeline(extractor, geminiClient, store, locker, cfg.MaxChunkSize, cfg.EmbedConcurrency)
	engine := services.NewQAEngine(geminiClient, store, geminiClient, messages, cfg.MatchThreshold, cfg.MatchCount, cfg.HistoryTurns)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(otelgin.Middleware("ai-bot"))
	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupDocumentRoutes(router, cfg, pipeline, store, locker)
	routes.SetupChatRoutes(router, engine, messages)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
