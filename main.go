package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"practice-service/internal/clock"
	"practice-service/internal/config"
	"practice-service/internal/db"
	"practice-service/internal/event"
	"practice-service/internal/handlers"
	"practice-service/internal/leaderboard"
	"practice-service/internal/repository"
	"practice-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	db.InitMongo(cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	database := db.Client.Database(cfg.MongoDB.Database)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	cancel()

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" && cfg.RabbitMQ.Exchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, practice events will not be published")
	}

	// Redis leaderboard cache
	var board *leaderboard.Leaderboard
	if cfg.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		pingCancel()
		board = leaderboard.New(client)
	} else {
		log.Println("Redis not configured, rank queries will scan the users collection")
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "X-User-ID", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Repositories, services, handlers
	sessionRepo := repository.NewSessionRepository(database)
	answerRepo := repository.NewAnswerRepository(database)
	logRepo := repository.NewPracticeLogRepository(database)
	userRepo := repository.NewUserRepository(database)

	// A nil *EventPublisher must stay a nil interface for the services'
	// nil checks to hold.
	var pub service.Publisher
	if publisher != nil {
		pub = publisher
	}

	progressService := service.NewProgressService(
		logRepo,
		userRepo,
		board,
		pub,
		clock.System(),
		cfg.Session.StreakLookback,
	)
	sessionService := service.NewSessionService(
		sessionRepo,
		answerRepo,
		progressService,
		pub,
		clock.System(),
		cfg.Session,
	)

	sessionHandler := handlers.NewSessionHandler(sessionService)
	progressHandler := handlers.NewProgressHandler(progressService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "practice-service",
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	setupRoutes(r, sessionHandler, progressHandler)

	r.Run(":" + cfg.Server.Port)
}

func authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-User-ID") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func setupRoutes(r *gin.Engine, sessionHandler *handlers.SessionHandler, progressHandler *handlers.ProgressHandler) {
	// Public routes: anonymous practice sessions and read-only progress views.
	publicSession := r.Group("/public/practice/session")
	{
		publicSession.POST("/", sessionHandler.CreateAnonymousSession)
		publicSession.GET("/:id/sync", sessionHandler.SyncTimer)
		publicSession.POST("/:id/progress", sessionHandler.SaveProgress)
		publicSession.POST("/:id/submit", sessionHandler.Submit)
		publicSession.GET("/:id", sessionHandler.Resume)
	}

	publicUser := r.Group("/public/practice/user")
	{
		publicUser.GET("/:id/daily", progressHandler.GetDailyProgress)
		publicUser.GET("/:id/streak", progressHandler.GetStreak)
	}

	r.GET("/public/practice/leaderboard", progressHandler.GetLeaderboard)

	// Protected routes: identity arrives from the auth layer as X-User-ID.
	protectedSession := r.Group("/protected/practice/session")
	protectedSession.Use(authRequired())
	{
		protectedSession.POST("/", sessionHandler.CreateSession)
		protectedSession.GET("/:id", sessionHandler.Resume)
		protectedSession.GET("/:id/sync", sessionHandler.SyncTimer)
		protectedSession.POST("/:id/progress", sessionHandler.SaveProgress)
		protectedSession.POST("/:id/submit", sessionHandler.Submit)
		protectedSession.GET("/:id/answers", sessionHandler.GetSessionAnswers)
	}

	protectedUser := r.Group("/protected/practice/user")
	protectedUser.Use(authRequired())
	{
		protectedUser.GET("/:id/rank", progressHandler.GetRank)
		protectedUser.GET("/:id/sessions", sessionHandler.GetUserSessions)
	}
}
