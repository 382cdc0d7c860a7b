package models

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes carried in AppError.Code
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrParentNotFound     = errors.New("parent comment not found on this post")
	ErrPostNotPublished   = errors.New("post is not open for comments")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("resource already exists")
	ErrRateLimited        = errors.New("too many requests")
)

// AppError is an error with a protocol-independent code
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a code and a client-safe message
func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusForCode(code),
		Err:        err,
	}
}

// ToHTTPError converts to HTTP-compatible error response
func (e *AppError) ToHTTPError() *APIResponse {
	return &APIResponse{
		Success:   false,
		Error:     e.Code,
		Message:   e.Message,
		Timestamp: time.Now(),
	}
}

// ToGRPCError converts to gRPC status error
func (e *AppError) ToGRPCError() error {
	return status.Error(grpcCodeForCode(e.Code), e.Message)
}

// ToWebSocketError returns WebSocket close code and message
func (e *AppError) ToWebSocketError() (int, string) {
	switch e.Code {
	case ErrCodeUnauthorized, ErrCodeForbidden:
		return websocket.ClosePolicyViolation, e.Message
	case ErrCodeNotFound, ErrCodeValidation, ErrCodeBadRequest:
		return websocket.CloseUnsupportedData, e.Message
	case ErrCodeServiceUnavailable:
		return websocket.CloseTryAgainLater, e.Message
	default:
		return websocket.CloseInternalServerErr, e.Message
	}
}

// AsAppError classifies any error coming out of the service layer.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrCommentNotFound),
		errors.Is(err, ErrUserNotFound), errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrNotFound):
		return NewAppError(ErrCodeNotFound, rootMessage(err), err)
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrUnauthorized):
		return NewAppError(ErrCodeUnauthorized, rootMessage(err), err)
	case errors.Is(err, ErrForbidden):
		return NewAppError(ErrCodeForbidden, rootMessage(err), err)
	case errors.Is(err, ErrUsernameExists), errors.Is(err, ErrConflict):
		return NewAppError(ErrCodeConflict, rootMessage(err), err)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrParentNotFound),
		errors.Is(err, ErrPostNotPublished):
		return NewAppError(ErrCodeValidation, err.Error(), err)
	case errors.Is(err, ErrRateLimited):
		return NewAppError(ErrCodeRateLimited, rootMessage(err), err)
	default:
		return NewAppError(ErrCodeInternal, "internal server error", err)
	}
}

// HTTPStatus maps an error from any layer to a response status code
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return AsAppError(err).StatusCode
}

// rootMessage returns the text of the innermost wrapped error so internal
// context added with %w does not leak to clients.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func statusForCode(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func grpcCodeForCode(code string) codes.Code {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest:
		return codes.InvalidArgument
	case ErrCodeNotFound:
		return codes.NotFound
	case ErrCodeUnauthorized:
		return codes.Unauthenticated
	case ErrCodeForbidden:
		return codes.PermissionDenied
	case ErrCodeConflict:
		return codes.AlreadyExists
	case ErrCodeRateLimited:
		return codes.ResourceExhausted
	case ErrCodeServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
