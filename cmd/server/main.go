package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/core"
	"inkwell/internal/events"
	grpcProtocol "inkwell/internal/protocols/grpc"
	httpProtocol "inkwell/internal/protocols/http"
	wsProtocol "inkwell/internal/protocols/websocket"
	"inkwell/internal/repository"
	"inkwell/pkg/config"
	"inkwell/pkg/database"
	"inkwell/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger.Init(cfg.Logging)
	logger.Info("Starting Inkwell server...")

	ctx := context.Background()

	// database/sql handle for migrations and health checks, pgx pool for queries
	db, err := database.NewDB(cfg.Database.Options())
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema is up to date")
	}

	pool, err := database.NewPGXPool(cfg.Database.Options())
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	logger.Info("Connected to PostgreSQL database")

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	postRepo := repository.NewPostRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	likeRepo := repository.NewLikeRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	// Comment events fan out across instances through NATS when configured
	var bus events.Bus
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATS(events.NATSOptions{
			URL:           cfg.NATS.URL,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
			ClientName:    cfg.NATS.ClientName,
		})
		if err != nil {
			logger.Fatalf("Failed to connect to NATS: %v", err)
		}
		bus = natsBus
		logger.Infof("Publishing comment events to NATS at %s", cfg.NATS.URL)
	} else {
		bus = events.NewLocal()
		logger.Info("Comment events stay in-process (nats.url is empty)")
	}
	defer bus.Close()

	// A process-local cache would go stale behind other instances, so it is
	// only used when this is the only one.
	var store cache.Cache
	switch {
	case cfg.Redis.Enabled:
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		store = redisCache
		logger.Infof("Caching threads in Redis at %s", cfg.Redis.Addr)
	case cfg.NATS.URL == "":
		store = cache.NewMemory(cfg.Redis.TTL)
	default:
		store = cache.Noop{}
	}
	defer store.Close()

	// Initialize core services
	authSvc := core.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	postSvc := core.NewPostService(postRepo, store)
	commentSvc := core.NewCommentService(commentRepo, postRepo, store, bus, core.CommentServiceOptions{
		MaxLength: cfg.Comments.MaxLength,
		Policy:    cfg.Disclosure,
	})
	likeSvc := core.NewLikeService(likeRepo, postRepo, commentRepo, store, bus)
	categorySvc := core.NewCategoryService(categoryRepo)

	logger.Info("Initialized all core services")

	// 1. HTTP REST API server
	httpServer := httpProtocol.NewServer(cfg, httpProtocol.Services{
		Auth:       authSvc,
		Posts:      postSvc,
		Comments:   commentSvc,
		Likes:      likeSvc,
		Categories: categorySvc,
	})
	httpServer.AddHealthCheck("database", db.HealthCheck)
	if redisCache, ok := store.(*cache.RedisCache); ok {
		httpServer.AddHealthCheck("redis", func(ctx context.Context) error {
			return redisCache.Client.Ping(ctx).Err()
		})
	}

	// 2. WebSocket live threads, mounted on the HTTP router
	wsHub, err := wsProtocol.NewHub(commentSvc, bus, cfg.WebSocket.MaxClientsPerRoom)
	if err != nil {
		logger.Fatalf("Failed to start websocket hub: %v", err)
	}
	wsHandler := wsProtocol.NewHandler(wsHub, authSvc, postSvc, cfg.WebSocket.AllowedOrigins)

	router := httpServer.Router()
	router.GET("/ws/posts/:slug/comments", wsHandler.HandleWebSocket)
	router.GET("/ws/posts/:slug/comments/status", wsHandler.GetRoomStatus)
	router.GET("/ws/status", wsHandler.GetGlobalStatus)

	// 3. gRPC health and reflection
	var grpcServer *grpcProtocol.Server
	if cfg.GRPC.Enabled {
		grpcServer = grpcProtocol.NewServer(cfg.GRPC.Addr(), 15*time.Second)
		grpcServer.AddCheck("database", db.HealthCheck)
		if redisCache, ok := store.(*cache.RedisCache); ok {
			grpcServer.AddCheck("redis", func(ctx context.Context) error {
				return redisCache.Client.Ping(ctx).Err()
			})
		}
		if err := grpcServer.Start(); err != nil {
			logger.Fatalf("Failed to start gRPC server: %v", err)
		}
	}

	// Start HTTP server
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("HTTP server panic recovered: %v", r)
			}
		}()
		logger.Info(fmt.Sprintf("Starting HTTP server on %s", cfg.Server.Addr()))
		if err := httpServer.Start(cfg.Server.Addr()); err != nil {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info(fmt.Sprintf("Received signal: %v", sig))
	logger.Info("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown: %v", err)
	}
	logger.Info("HTTP server stopped")

	wsHub.Stop()
	logger.Info("WebSocket hub stopped")

	if grpcServer != nil {
		grpcServer.Stop()
	}

	logger.Info("Shutdown complete")
}
