package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"trip-server/internal/config"
	"trip-server/internal/database"
	"trip-server/internal/handler"
	"trip-server/internal/imagesearch"
	"trip-server/internal/logger"
	"trip-server/internal/messaging"
	"trip-server/internal/repository"
	"trip-server/internal/service"
	"trip-server/pkg/ai"
)

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		// В production .env может не использоваться
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	encoding := "json"
	if cfg.Environment != "production" {
		encoding = "console"
	}
	appLogger, err := logger.New(logger.Config{
		Level:    os.Getenv("LOG_LEVEL"),
		Encoding: encoding,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting trip server",
		zap.String("environment", cfg.Environment),
		zap.String("db_dsn", cfg.MaskedDSN()),
		zap.String("ai_model", cfg.AIModel))

	ctx := context.Background()

	dbPool, err := database.Connect(ctx, cfg.GetDSN(), appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(dbPool, appLogger)

	if err := database.ApplyMigrations(dbPool, appLogger); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	aiClient, err := ai.New(ai.Config{
		Provider:       cfg.AIProvider,
		APIKey:         cfg.AIAPIKey,
		ModelName:      cfg.AIModel,
		BaseURL:        cfg.AIBaseURL,
		Timeout:        cfg.AITimeout,
		MaxAttempts:    cfg.AIMaxAttempts,
		BaseRetryDelay: cfg.AIBaseRetryDelay,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize AI client", zap.Error(err))
	}

	planRepo := repository.NewPostgresPlanRepository(dbPool, appLogger)

	// Публикация событий опциональна: без RabbitMQ сервер работает как обычно
	var publisher service.PlanPublisher
	if cfg.RabbitMQURL != "" {
		rabbitPublisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize RabbitMQ publisher", zap.Error(err))
		}
		defer rabbitPublisher.Close()
		publisher = rabbitPublisher
	}

	// Обогащение фотографиями тоже опционально
	var enricher service.PlanEnricher
	if cfg.ImageSearchAPIKey != "" {
		var redisClient *redis.Client
		if cfg.RedisAddr != "" {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err := redisClient.Ping(ctx).Err(); err != nil {
				appLogger.Warn("Redis unavailable, image cache disabled", zap.Error(err))
				redisClient = nil
			}
		}
		provider := imagesearch.NewUnsplashClient(cfg.ImageSearchBaseURL, cfg.ImageSearchAPIKey, cfg.ImageSearchTimeout, appLogger)
		enricher = imagesearch.NewEnricher(provider, planRepo, redisClient, cfg.ImageVerifyTimeout, cfg.ImageCacheTTL, appLogger)
	}

	planService := service.NewPlanService(aiClient, planRepo, publisher, enricher, appLogger)
	planHandler := handler.NewPlanHandler(planService, appLogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	prom := ginprometheus.NewPrometheus("trip_server")
	prom.Use(router)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	planHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.Int("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	gracefulShutdown(server, appLogger)
}

// gracefulShutdown обеспечивает плавное завершение работы сервера.
func gracefulShutdown(server *http.Server, appLogger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}

	appLogger.Info("Server stopped gracefully")
}
