// Package http serves the REST API over gin.
package http

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"inkwell/internal/core"
	"inkwell/pkg/config"
	"inkwell/pkg/logger"
	"inkwell/pkg/models"
)

// Services groups the business services the API exposes
type Services struct {
	Auth       core.AuthService
	Posts      core.PostService
	Comments   core.CommentService
	Likes      core.LikeService
	Categories core.CategoryService
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Server manages HTTP REST API server
type Server struct {
	router  *gin.Engine
	config  *config.Config
	svc     Services
	limiter *RateLimiter
	started time.Time

	checksMu sync.RWMutex
	checks   map[string]HealthCheck

	httpServer *http.Server
}

// NewServer creates a new HTTP server with all handlers
func NewServer(cfg *config.Config, svc Services) *Server {
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.Use(Recovery())
	router.Use(CORS(cfg.Server.CORSOrigins))

	s := &Server{
		router:  router,
		config:  cfg,
		svc:     svc,
		limiter: NewRateLimiter(cfg.Comments.RateLimit, cfg.Comments.Burst),
		started: time.Now(),
		checks:  make(map[string]HealthCheck),
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.NoRoute(func(c *gin.Context) {
		respondError(c, models.NewAppError(models.ErrCodeNotFound, "route not found", nil))
	})

	auth := AuthMiddleware(s.svc.Auth)
	optional := OptionalAuth(s.svc.Auth)
	limited := s.limiter.Middleware()

	v1 := s.router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", s.register)
			authGroup.POST("/login", s.login)
		}

		v1.GET("/users/:username", s.getProfile)
		v1.GET("/me", auth, s.me)
		v1.PUT("/me", auth, s.updateMe)

		admin := v1.Group("/admin", auth, RequireRole(models.UserRoleAdmin))
		{
			admin.PUT("/users/:id/role", s.updateUserRole)
		}

		v1.GET("/categories", s.listCategories)
		v1.POST("/categories", auth, RequireRole(models.UserRoleAdmin), s.createCategory)
		v1.DELETE("/categories/:slug", auth, RequireRole(models.UserRoleAdmin), s.deleteCategory)

		v1.GET("/posts", optional, s.listPosts)
		v1.POST("/posts", auth, RequireRole(models.UserRoleAuthor), s.createPost)
		v1.GET("/posts/:slug", optional, s.getPost)
		v1.PUT("/posts/:slug", auth, s.updatePost)
		v1.DELETE("/posts/:slug", auth, s.deletePost)
		v1.POST("/posts/:slug/publish", auth, s.publishPost)
		v1.POST("/posts/:slug/like", auth, limited, s.likePost)

		v1.GET("/posts/:slug/comments", optional, s.listComments)
		v1.POST("/posts/:slug/comments", auth, limited, s.createComment)

		v1.GET("/comments/:id", optional, s.getComment)
		v1.PUT("/comments/:id", auth, limited, s.updateComment)
		v1.DELETE("/comments/:id", auth, s.deleteComment)
		v1.POST("/comments/:id/like", auth, limited, s.likeComment)
	}
}

// AddHealthCheck registers a dependency probe reported by /health
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checksMu.Lock()
	defer s.checksMu.Unlock()
	s.checks[name] = check
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin router (for testing and extra routes)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// healthCheck returns server health status
func (s *Server) healthCheck(c *gin.Context) {
	s.checksMu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make(map[string]HealthCheck, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.checksMu.RUnlock()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	health := models.HealthStatus{
		Status:   "ok",
		Services: make(map[string]string, len(names)),
		Uptime:   time.Since(s.started).Round(time.Second).String(),
	}
	code := http.StatusOK
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			logger.WithError(err).WithField("service", name).Warn("health check failed")
			health.Services[name] = "down"
			health.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		health.Services[name] = "up"
	}
	c.JSON(code, health)
}
