package websocket

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"inkwell/internal/core"
	"inkwell/pkg/models"
	"inkwell/pkg/thread"
)

// Handler upgrades comment-thread subscriptions
type Handler struct {
	hub            *Hub
	authSvc        core.AuthService
	postSvc        core.PostService
	upgrader       websocket.Upgrader
	allowedOrigins map[string]bool
	allowAll       bool
	metrics        struct {
		sync.Mutex
		totalConnections uint64
		active           map[string]int
	}
}

// NewHandler creates a websocket handler. An empty or "*" origin list
// accepts any origin.
func NewHandler(hub *Hub, authSvc core.AuthService, postSvc core.PostService, allowedOrigins []string) *Handler {
	h := &Handler{
		hub:            hub,
		authSvc:        authSvc,
		postSvc:        postSvc,
		allowedOrigins: make(map[string]bool),
		allowAll:       len(allowedOrigins) == 0,
	}
	for _, o := range allowedOrigins {
		if o == "*" {
			h.allowAll = true
		}
		h.allowedOrigins[o] = true
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:    1024,
		WriteBufferSize:   4096,
		CheckOrigin:       h.checkOrigin,
		EnableCompression: true,
		Subprotocols:      []string{"inkwell.thread-v1"},
	}
	h.metrics.active = make(map[string]int)
	return h
}

// HandleWebSocket subscribes the caller to the comment thread of a post.
// Anonymous subscribers may read published posts; a token (query, header or
// cookie) lets authors watch their drafts. ?view=disclosed&expand=id:n asks
// for the disclosed view instead of the full tree.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	ctx := c.Request.Context()

	var user *models.User
	if token := extractToken(c); token != "" {
		u, err := h.authSvc.ValidateToken(ctx, token)
		if err != nil {
			h.sendError(c, err)
			return
		}
		user = u
	}

	post, err := h.postSvc.GetBySlug(ctx, c.Param("slug"), user)
	if err != nil {
		h.sendError(c, err)
		return
	}

	opts := SubscribeOptions{}
	if user != nil {
		opts.UserID = user.ID
	}
	switch c.DefaultQuery("view", "tree") {
	case "tree":
	case "disclosed":
		opts.Disclosed = true
		opts.Expansions, err = thread.ParseExpansions(c.Query("expand"))
		if err != nil {
			h.sendError(c, models.NewAppError(models.ErrCodeBadRequest, err.Error(), err))
			return
		}
	default:
		h.sendError(c, models.NewAppError(models.ErrCodeBadRequest, "view must be tree or disclosed", nil))
		return
	}

	if h.hub.Full(post.ID) {
		h.sendError(c, models.NewAppError(models.ErrCodeServiceUnavailable, ErrRoomFull.Error(), ErrRoomFull))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the response
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.updateMetrics(post.ID, true)
	opts.OnClose = func() { h.updateMetrics(post.ID, false) }

	if err := h.hub.ServeClient(conn, post.ID, opts); err != nil {
		code, text := models.NewAppError(models.ErrCodeServiceUnavailable, err.Error(), err).ToWebSocketError()
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
		conn.Close()
		h.updateMetrics(post.ID, false)
		return
	}

	logrus.WithFields(logrus.Fields{
		"post_id":   post.ID,
		"user_id":   opts.UserID,
		"disclosed": opts.Disclosed,
	}).Info("comment subscriber connected")
}

// GetRoomStatus reports how many clients watch a post
func (h *Handler) GetRoomStatus(c *gin.Context) {
	post, err := h.postSvc.GetBySlug(c.Request.Context(), c.Param("slug"), nil)
	if err != nil {
		h.sendError(c, err)
		return
	}
	count := h.hub.RoomClientCount(post.ID)
	c.JSON(http.StatusOK, gin.H{
		"post_id":     post.ID,
		"subscribers": count,
		"active":      count > 0,
	})
}

// GetGlobalStatus returns global WebSocket statistics
func (h *Handler) GetGlobalStatus(c *gin.Context) {
	h.metrics.Lock()
	defer h.metrics.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"total_connections": h.metrics.totalConnections,
		"active_rooms":      len(h.metrics.active),
		"server_time":       time.Now().UTC(),
	})
}

// extractToken looks in the query, the Authorization header and the cookie
func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	if cookie, err := c.Request.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// checkOrigin validates request origin against allowed origins
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// non-browser clients omit Origin
	if origin == "" || h.allowAll {
		return true
	}
	if u, err := url.Parse(origin); err == nil {
		host := strings.ToLower(u.Hostname())
		if host == "localhost" || host == "127.0.0.1" {
			return true
		}
	}
	return h.allowedOrigins[origin]
}

// sendError answers a request that was not upgraded
func (h *Handler) sendError(c *gin.Context, err error) {
	appErr := models.AsAppError(err)
	logrus.WithFields(logrus.Fields{
		"status": appErr.StatusCode,
		"code":   appErr.Code,
	}).Warn("websocket subscription refused")
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToHTTPError())
}

func (h *Handler) updateMetrics(postID string, connected bool) {
	h.metrics.Lock()
	defer h.metrics.Unlock()

	if connected {
		h.metrics.totalConnections++
		h.metrics.active[postID]++
		return
	}
	if n := h.metrics.active[postID] - 1; n > 0 {
		h.metrics.active[postID] = n
	} else {
		delete(h.metrics.active, postID)
	}
}
