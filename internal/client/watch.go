package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"inkwell/pkg/thread"
)

type liveMessage struct {
	Type   string           `json:"type"`
	Thread *thread.Snapshot `json:"thread,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Update is one message of a live thread subscription
type Update struct {
	Snapshot *thread.Snapshot
	Err      error
}

func (c *Client) watchURL(slug string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server address: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/posts/" + url.PathEscape(slug) + "/comments"
	u.RawQuery = "view=tree"
	return u.String(), nil
}

// Watch subscribes to the full reply tree of a post. The channel yields the
// current tree first, then one snapshot per change, and is closed when ctx
// ends or the connection drops. A final Update carries the reason if it was
// not ctx.
func (c *Client) Watch(ctx context.Context, slug string) (<-chan Update, error) {
	target, err := c.watchURL(slug)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: c.httpClient.Timeout,
		Subprotocols:     []string{"inkwell.thread-v1"},
	}
	conn, resp, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			if apiErr := decodeAPIResponse(resp, nil); apiErr != nil {
				return nil, apiErr
			}
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	updates := make(chan Update, 8)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(updates)
		defer conn.Close()
		for {
			var msg liveMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if ctx.Err() == nil {
					updates <- Update{Err: err}
				}
				return
			}
			var u Update
			switch msg.Type {
			case "thread":
				u.Snapshot = msg.Thread
			case "error":
				u.Err = fmt.Errorf("server: %s", msg.Error)
			default:
				continue
			}
			select {
			case updates <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates, nil
}
