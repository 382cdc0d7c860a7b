package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"inkwell/pkg/logger"
	"inkwell/pkg/models"
	"inkwell/pkg/utils"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// respondError writes the error envelope for err. Internal errors are logged
// with the request id and reported to the client without detail.
func respondError(c *gin.Context, err error) {
	appErr := models.AsAppError(err)
	if utils.IsContextError(err) {
		logger.WithRequestID(c.Request.Context()).WithError(err).Warn("request gave up")
		appErr = models.NewAppError(models.ErrCodeServiceUnavailable, "request timed out", err)
	} else if appErr.StatusCode >= http.StatusInternalServerError {
		logger.WithRequestID(c.Request.Context()).
			WithError(err).
			WithField("path", c.FullPath()).
			Error("request failed")
	}
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToHTTPError())
}

func badRequest(c *gin.Context, message string) {
	respondError(c, models.NewAppError(models.ErrCodeBadRequest, message, nil))
}
