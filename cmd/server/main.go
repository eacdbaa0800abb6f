package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/frxplorer/api/internal/cache"
	"github.com/frxplorer/api/internal/client"
	"github.com/frxplorer/api/internal/config"
	"github.com/frxplorer/api/internal/handler"
	"github.com/frxplorer/api/internal/middleware"
	"github.com/frxplorer/api/internal/service"
	"github.com/frxplorer/api/internal/worker"
	ws "github.com/frxplorer/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize object storage (optional - continues if not configured)
	var storageClient client.StorageClient
	if cfg.Storage.AccessKeyID != "" && cfg.Storage.SecretAccessKey != "" {
		s3Client, err := client.NewS3Client(&cfg.Storage)
		if err != nil {
			log.Printf("Warning: storage client not initialized: %v", err)
		} else {
			storageClient = s3Client
		}
	} else {
		log.Println("Info: object storage not configured, image archival disabled")
	}

	// Initialize stores and services
	mapStore := cache.NewRedisStore(redisClient, 24*time.Hour)
	taskStore := service.NewRedisTaskStore(redisClient, 24*time.Hour)
	mapService := service.NewMapService(mapStore, taskStore, asynqClient)
	seedService := service.NewSeedService(service.NewRedisSeedStore(redisClient))
	imageService := service.NewImageService(service.NewRedisImageStore(redisClient), mapStore, storageClient)

	// Initialize handlers
	mapHandler := handler.NewMapHandler(mapService, validate)
	seedHandler := handler.NewSeedHandler(seedService, validate)
	imageHandler := handler.NewImageHandler(imageService, validate)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    10 * 1024 * 1024, // 10MB
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":   redisClient.Ping(c.Context()).Err() == nil,
				"storage": storageClient != nil,
				"auth":    cfg.JWT.Secret != "",
			},
		})
	})

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	// Map routes
	maps := api.Group("/maps")
	maps.Get("/calculate", rateLimiter.CalculateLimit(cfg.RateLimit.CalculatePerMin), mapHandler.Calculate)
	maps.Get("/status/:taskId", mapHandler.Status)
	maps.Get("/get", mapHandler.GetMap)

	// Seed routes
	seeds := api.Group("/seeds")
	seeds.Post("/", rateLimiter.SeedLimit(cfg.RateLimit.SeedPerMin), seedHandler.Create)
	seeds.Get("/", seedHandler.List)
	seeds.Get("/:seedId", seedHandler.Get)
	seeds.Put("/:seedId", rateLimiter.SeedLimit(cfg.RateLimit.SeedPerMin), seedHandler.Update)
	seeds.Post("/:seedId/retire", seedHandler.Retire)
	seeds.Post("/:seedId/restore", seedHandler.Restore)

	// Image routes
	images := api.Group("/images")
	images.Post("/", imageHandler.Log)
	images.Get("/", imageHandler.List)
	images.Post("/:imageId/retire", imageHandler.Retire)
	images.Post("/:imageId/restore", imageHandler.Restore)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/tasks/:taskId", websocket.New(func(c *websocket.Conn) {
		taskID := c.Params("taskId")
		hub.HandleConnection(c, taskID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, mapService, mapStore, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(
	cfg *config.Config,
	mapService *service.MapService,
	mapStore cache.Store,
	hub *ws.Hub,
) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				"compute": 6,
				"png":     4,
			},
			LogLevel: asynqLogLevel,
		},
	)

	computeWorker := worker.NewComputeWorker(mapService, mapStore, hub)
	if cfg.Worker.RowWorkers > 0 {
		computeWorker.SetRowWorkers(cfg.Worker.RowWorkers)
	}
	pngWorker := worker.NewPNGWorker(mapService, mapStore, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeCompute, computeWorker.ProcessTask)
	mux.HandleFunc(service.TaskTypePNG, pngWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
