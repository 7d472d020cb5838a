package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/voicedeskhq/voicedesk/config"
	"github.com/voicedeskhq/voicedesk/internal/api/handlers"
	"github.com/voicedeskhq/voicedesk/internal/api/middleware"
	"github.com/voicedeskhq/voicedesk/internal/api/routes"
	"github.com/voicedeskhq/voicedesk/internal/cache"
	"github.com/voicedeskhq/voicedesk/internal/logger"
	"github.com/voicedeskhq/voicedesk/internal/pipeline"
	"github.com/voicedeskhq/voicedesk/internal/providers/llm"
	"github.com/voicedeskhq/voicedesk/internal/providers/stt"
	"github.com/voicedeskhq/voicedesk/internal/providers/tts"
	mongorepo "github.com/voicedeskhq/voicedesk/internal/repositories/mongo"
	pgrepo "github.com/voicedeskhq/voicedesk/internal/repositories/postgres"
	"github.com/voicedeskhq/voicedesk/internal/services"
	"github.com/voicedeskhq/voicedesk/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()
	ctx := context.Background()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	l.Info("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "voicedesk"
	}
	mongoDB := config.MongoClient.Database(dbName)

	// Repositories
	callRepo := mongorepo.NewCallRepo(mongoDB)
	transferRepo := pgrepo.NewTransferRepo(config.PostgresDB)

	// Providers
	sttProvider, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		log.Fatalf("speech-to-text init error: %v", err)
	}
	defer sttProvider.Close()

	llmProvider, err := llm.NewVertexGemini(ctx,
		os.Getenv("GOOGLE_PROJECT_ID"),
		os.Getenv("GOOGLE_LOCATION"),
		os.Getenv("VERTEX_MODEL"),
	)
	if err != nil {
		log.Fatalf("dialogue model init error: %v", err)
	}
	defer llmProvider.Close()

	ttsProvider := tts.NewElevenLabs(
		os.Getenv("ELEVENLABS_API_KEY"),
		os.Getenv("ELEVENLABS_VOICE_ID"),
	)

	// Services
	redisCache := cache.NewRedisCache(config.RedisClient)
	callSvc := services.NewCallService(callRepo)
	transferSvc := services.NewTransferService(transferRepo, redisCache, config.RedisClient, l)
	analysisSvc := services.NewAnalysisService(llmProvider, callRepo, l)

	// Post-call analysis workers
	pool := &workers.AnalysisWorkerPool{
		Redis:    config.RedisClient,
		Analysis: analysisSvc,
		Logger:   l,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("analysis worker error: %v", err)
	}

	// Live sessions
	sessions := pipeline.NewManager()
	deps := pipeline.Deps{
		STT:   sttProvider,
		LLM:   llmProvider,
		TTS:   ttsProvider,
		Calls: callSvc,
		Redis: config.RedisClient,
		Log:   l,
	}

	d := routes.Deps{
		Media:    handlers.NewMediaWSHandler(deps, sessions, callSvc, l),
		Transfer: handlers.NewTransferHandler(transferSvc, sessions),
		Call:     handlers.NewCallHandler(callSvc),
	}

	// Start Gin server
	r := gin.New()
	r.Use(middleware.RequestLogger(l), gin.Recovery())
	routes.RegisterRoutes(r, d)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
