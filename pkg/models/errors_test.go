package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("get post: %w", ErrPostNotFound), http.StatusNotFound},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("delete: %w", ErrForbidden), http.StatusForbidden},
		{ErrUsernameExists, http.StatusConflict},
		{ErrParentNotFound, http.StatusBadRequest},
		{ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "%v", tc.err)
	}
}

func TestAsAppError_HidesWrappedContext(t *testing.T) {
	err := fmt.Errorf("comment repository: get c-1: %w", ErrCommentNotFound)
	appErr := AsAppError(err)
	assert.Equal(t, ErrCodeNotFound, appErr.Code)
	assert.Equal(t, "comment not found", appErr.Message)
	assert.ErrorIs(t, appErr, ErrCommentNotFound)

	internal := AsAppError(errors.New("pq: connection refused"))
	assert.Equal(t, "internal server error", internal.Message)
}

func TestAppError_Conversions(t *testing.T) {
	appErr := NewAppError(ErrCodeForbidden, "not yours", nil)

	resp := appErr.ToHTTPError()
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeForbidden, resp.Error)

	st, ok := status.FromError(appErr.ToGRPCError())
	assert.True(t, ok)
	assert.Equal(t, codes.PermissionDenied, st.Code())

	code, msg := appErr.ToWebSocketError()
	assert.Equal(t, websocket.ClosePolicyViolation, code)
	assert.Equal(t, "not yours", msg)
}

func TestUser_HasRole(t *testing.T) {
	mod := &User{Role: UserRoleModerator}
	assert.True(t, mod.HasRole(UserRoleUser))
	assert.True(t, mod.HasRole(UserRoleAuthor))
	assert.True(t, mod.HasRole(UserRoleModerator))
	assert.False(t, mod.HasRole(UserRoleAdmin))

	user := &User{Role: UserRoleUser}
	assert.False(t, user.HasRole(UserRoleAuthor))
}

func TestValidateRegisterRequest(t *testing.T) {
	ok := &RegisterRequest{Username: " ada_l ", Email: "ada@example.com", Password: "correct horse"}
	assert.NoError(t, ValidateRegisterRequest(ok))
	assert.Equal(t, "ada_l", ok.Username)

	assert.Error(t, ValidateRegisterRequest(&RegisterRequest{Username: "ad", Email: "a@b", Password: "longenough"}))
	assert.Error(t, ValidateRegisterRequest(&RegisterRequest{Username: "ada l", Email: "a@b", Password: "longenough"}))
	assert.Error(t, ValidateRegisterRequest(&RegisterRequest{Username: "ada", Email: "nope", Password: "longenough"}))
	assert.Error(t, ValidateRegisterRequest(&RegisterRequest{Username: "ada", Email: "a@b", Password: "short"}))
}
