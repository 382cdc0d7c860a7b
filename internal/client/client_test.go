package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/pkg/models"
	"inkwell/pkg/thread"
)

func envelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{Success: status < 300, Data: data, Timestamp: time.Now()})
}

func failure(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{Error: code, Message: message, Timestamp: time.Now()})
}

func TestLoginKeepsToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			failure(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "invalid username or password")
			return
		}
		envelope(w, http.StatusOK, models.LoginResponse{Token: "tok", User: models.UserProfile{ID: "u1", Username: req.Username}})
	})
	mux.HandleFunc("/api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			failure(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "missing token")
			return
		}
		envelope(w, http.StatusOK, models.UserProfile{ID: "u1", Username: "alice"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL + "/")
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "wrong")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, models.ErrCodeUnauthorized, apiErr.Code)
	assert.Empty(t, c.Token())

	resp, err := c.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "tok", c.Token())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
}

func TestThreadRequests(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/posts/hello/comments", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		switch r.Method {
		case http.MethodPost:
			var req models.CreateCommentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			c := models.Comment{ID: "c9", Content: req.Content, ParentID: req.ParentID}
			envelope(w, http.StatusCreated, c)
		default:
			forest := thread.Build([]models.Comment{
				{ID: "a", CreatedAt: time.Unix(1, 0)},
				{ID: "b", ParentID: strp("a"), CreatedAt: time.Unix(2, 0)},
			})
			envelope(w, http.StatusOK, thread.NewSnapshot("p1", forest))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	snap, err := c.Thread(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "view=tree", gotQuery)
	require.Len(t, snap.Comments, 1)
	assert.Equal(t, "a", snap.Comments[0].ID)
	require.Len(t, snap.Comments[0].Replies, 1)
	assert.Equal(t, 1, snap.Comments[0].Replies[0].Level)
	assert.Equal(t, 2, snap.Total)

	_, err = c.DisclosedThread(ctx, "hello", map[string]int{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, "expand=a%3A2%2Cb%3A1&view=disclosed", gotQuery)

	reply, err := c.AddComment(ctx, "hello", "a", "me too")
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, "a", *reply.ParentID)

	top, err := c.AddComment(ctx, "hello", "", "first")
	require.NoError(t, err)
	assert.Nil(t, top.ParentID)
}

func TestNonJSONErrorKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetPost(context.Background(), "x")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestWatch(t *testing.T) {
	upgrader := websocket.Upgrader{Subprotocols: []string{"inkwell.thread-v1"}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/posts/hello/comments", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		snap := thread.NewSnapshot("p1", thread.Build([]models.Comment{{ID: "a"}}))
		_ = conn.WriteJSON(liveMessage{Type: "thread", Thread: snap})
		_ = conn.WriteJSON(liveMessage{Type: "pong"})
		_ = conn.WriteJSON(liveMessage{Type: "error", Error: "slow down"})
		// wait for the client to hang up
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := c.Watch(ctx, "hello")
	require.NoError(t, err)

	first := <-updates
	require.NoError(t, first.Err)
	assert.Equal(t, "p1", first.Snapshot.PostID)

	second := <-updates
	assert.EqualError(t, second.Err, "server: slow down")

	cancel()
	for range updates {
	}
}

func strp(s string) *string { return &s }
