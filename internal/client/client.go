// Package client talks to the inkwell HTTP API and the live thread socket.
// The CLI and the terminal viewer share it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"inkwell/pkg/models"
	"inkwell/pkg/thread"
)

const apiPrefix = "/api/v1"

// Error is a non-2xx answer from the API
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d): %s", e.Status, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Client handles HTTP API communication
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a client for the server at baseURL, e.g. http://localhost:8080
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the server address the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with common handling
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// decodeAPIResponse decodes the APIResponse envelope and unmarshals the data field into target
func decodeAPIResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &Error{Status: resp.StatusCode}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !apiResp.Success {
		return &Error{Status: resp.StatusCode, Code: apiResp.Error, Message: apiResp.Message}
	}

	if target != nil && len(apiResp.Data) > 0 {
		if err := json.Unmarshal(apiResp.Data, target); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, target interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeAPIResponse(resp, target)
}

// Auth endpoints

// Register creates an account and logs in with it
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	if err := c.call(ctx, http.MethodPost, "/auth/register", req, nil); err != nil {
		return nil, err
	}
	return c.Login(ctx, req.Username, req.Password)
}

// Login authenticates and keeps the returned token
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var loginResp models.LoginResponse
	body := models.LoginRequest{Username: username, Password: password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", body, &loginResp); err != nil {
		return nil, err
	}
	c.token = loginResp.Token
	return &loginResp, nil
}

// Me returns the profile of the logged-in user
func (c *Client) Me(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.call(ctx, http.MethodGet, "/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Post endpoints

// ListPosts returns one page of posts, optionally within a category
func (c *Client) ListPosts(ctx context.Context, category string, limit, offset int) (*models.PaginatedResponse[models.PostWithAuthor], error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	setPage(q, limit, offset)

	var page models.PaginatedResponse[models.PostWithAuthor]
	if err := c.call(ctx, http.MethodGet, "/posts?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchPosts runs a full-text search over published posts
func (c *Client) SearchPosts(ctx context.Context, query string, limit, offset int) (*models.PaginatedResponse[models.PostSearchResult], error) {
	q := url.Values{}
	q.Set("q", query)
	setPage(q, limit, offset)

	var page models.PaginatedResponse[models.PostSearchResult]
	if err := c.call(ctx, http.MethodGet, "/posts?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPost fetches a post by slug
func (c *Client) GetPost(ctx context.Context, slug string) (*models.PostWithAuthor, error) {
	var post models.PostWithAuthor
	if err := c.call(ctx, http.MethodGet, "/posts/"+url.PathEscape(slug), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func setPage(q url.Values, limit, offset int) {
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
}

// Comment endpoints

// FlatComments is the ?view=flat answer
type FlatComments struct {
	PostID   string           `json:"post_id" yaml:"post_id"`
	Total    int              `json:"total" yaml:"total"`
	Comments []models.Comment `json:"comments" yaml:"comments"`
}

func commentsPath(slug, view string, expansions map[string]int) string {
	q := url.Values{}
	q.Set("view", view)
	if e := thread.FormatExpansions(expansions); e != "" {
		q.Set("expand", e)
	}
	return "/posts/" + url.PathEscape(slug) + "/comments?" + q.Encode()
}

// Thread fetches the full reply tree of a post
func (c *Client) Thread(ctx context.Context, slug string) (*thread.Snapshot, error) {
	var snap thread.Snapshot
	if err := c.call(ctx, http.MethodGet, commentsPath(slug, "tree", nil), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// DisclosedThread fetches the tree as the server's disclosure policy shows it
func (c *Client) DisclosedThread(ctx context.Context, slug string, expansions map[string]int) (*thread.Snapshot, error) {
	var snap thread.Snapshot
	if err := c.call(ctx, http.MethodGet, commentsPath(slug, "disclosed", expansions), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Comments fetches the flat comment list of a post
func (c *Client) Comments(ctx context.Context, slug string) (*FlatComments, error) {
	var flat FlatComments
	if err := c.call(ctx, http.MethodGet, commentsPath(slug, "flat", nil), nil, &flat); err != nil {
		return nil, err
	}
	return &flat, nil
}

// AddComment posts a comment, or a reply when parentID is set
func (c *Client) AddComment(ctx context.Context, slug, parentID, content string) (*models.Comment, error) {
	req := models.CreateCommentRequest{Content: content}
	if parentID != "" {
		req.ParentID = &parentID
	}

	var comment models.Comment
	if err := c.call(ctx, http.MethodPost, "/posts/"+url.PathEscape(slug)+"/comments", req, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// LikeComment toggles the caller's like on a comment
func (c *Client) LikeComment(ctx context.Context, id string) (*models.LikeResult, error) {
	var result models.LikeResult
	if err := c.call(ctx, http.MethodPost, "/comments/"+url.PathEscape(id)+"/like", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
