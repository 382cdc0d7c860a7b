package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"inkwell/internal/core"
	"inkwell/pkg/logger"
	"inkwell/pkg/models"
	"inkwell/pkg/utils"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing the caller's when given
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = utils.GenerateID()
		}
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one structured line per request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.HTTP(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), int(time.Since(start).Milliseconds()))
	}
}

// Recovery turns a panic into a 500 envelope
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithRequestID(c.Request.Context()).
			WithField("panic", fmt.Sprint(recovered)).
			WithField("path", c.Request.URL.Path).
			Error("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			models.NewAppError(models.ErrCodeInternal, "internal server error", nil).ToHTTPError())
	})
}

// CORS allows the configured origins; "*" allows any
func CORS(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+requestIDHeader)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware validates JWT token and sets user context
func AuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			respondError(c, fmt.Errorf("missing authorization header: %w", models.ErrUnauthorized))
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			respondError(c, fmt.Errorf("invalid authorization format: %w", models.ErrUnauthorized))
			return
		}

		user, err := authSvc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// OptionalAuth sets the user context when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, err := authSvc.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set("user_id", user.ID)
				c.Set("user", user)
			}
		}
		c.Next()
	}
}

// RequireRole rejects users below role. Must run after AuthMiddleware.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			respondError(c, models.ErrUnauthorized)
			return
		}
		if !user.HasRole(role) {
			respondError(c, models.NewAppError(models.ErrCodeForbidden,
				fmt.Sprintf("%s role required", role), models.ErrForbidden))
			return
		}
		c.Next()
	}
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// GetUser retrieves the full authenticated user from the context
func GetUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	u, ok := user.(*models.User)
	return u, ok
}

// viewer is the authenticated user or nil
func viewer(c *gin.Context) *models.User {
	u, _ := GetUser(c)
	return u
}
