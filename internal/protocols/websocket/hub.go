// Package websocket pushes live comment threads to subscribers of a post.
// Every change to a post's comments, wherever it happened, reaches the hub
// through the event bus; the post's room then rebuilds the thread once and
// sends each client its own view of it.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"inkwell/internal/core"
	"inkwell/internal/events"
	"inkwell/pkg/models"
	"inkwell/pkg/thread"
	"inkwell/pkg/utils"
)

const (
	maxMessageSize  = 1024
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	defaultRoomSize = 1000
	cleanupInterval = 5 * time.Minute
)

var (
	// ErrRoomFull is returned when a post already has the maximum number of subscribers
	ErrRoomFull = errors.New("too many subscribers for this post")
	// ErrHubStopped is returned by ServeClient after Stop
	ErrHubStopped = errors.New("websocket hub stopped")
)

// Server message types
const (
	TypeThread = "thread"
	TypeError  = "error"
	TypePong   = "pong"
)

// Client message types
const (
	TypeExpand   = "expand"
	TypeCollapse = "collapse"
	TypeRefresh  = "refresh"
	TypePing     = "ping"
)

// Message is sent from the server to a subscriber
type Message struct {
	Type      string               `json:"type"`
	PostID    string               `json:"post_id"`
	Thread    *thread.Snapshot     `json:"thread,omitempty"`
	Event     *models.CommentEvent `json:"event,omitempty"`
	Error     string               `json:"error,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// ClientMessage is sent by a subscriber. CommentID is used by expand and collapse.
type ClientMessage struct {
	Type      string `json:"type"`
	CommentID string `json:"comment_id,omitempty"`
}

// Hub manages one room per watched post
type Hub struct {
	roomsMu     sync.RWMutex
	rooms       map[string]*Room
	comments    core.CommentService
	maxRoomSize int
	unsubscribe func()
	stop        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// Room holds the subscribers of one post
type Room struct {
	hub        *Hub
	postID     string
	clientsMu  sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	requests   chan clientRequest
	refresh    chan *models.CommentEvent
	stop       chan struct{}

	// owned by run
	latest []*thread.Node
}

type clientRequest struct {
	client *Client
	msg    ClientMessage
}

// NewHub creates a hub fed by bus. maxRoomSize <= 0 uses the default cap.
func NewHub(comments core.CommentService, bus events.Bus, maxRoomSize int) (*Hub, error) {
	if maxRoomSize <= 0 {
		maxRoomSize = defaultRoomSize
	}
	h := &Hub{
		rooms:       make(map[string]*Room),
		comments:    comments,
		maxRoomSize: maxRoomSize,
		stop:        make(chan struct{}),
	}

	if bus != nil {
		unsubscribe, err := bus.Subscribe(h.onEvent)
		if err != nil {
			return nil, err
		}
		h.unsubscribe = unsubscribe
	}

	h.wg.Add(1)
	go h.cleanupRooms()
	return h, nil
}

// onEvent runs on the bus's goroutine and must not block
func (h *Hub) onEvent(evt models.CommentEvent) {
	h.roomsMu.RLock()
	room, ok := h.rooms[evt.PostID]
	h.roomsMu.RUnlock()
	if !ok {
		return
	}

	select {
	case room.refresh <- &evt:
	default:
		// a rebuild is already pending; it will see this change too
	}
}

// cleanupRooms periodically removes empty rooms
func (h *Hub) cleanupRooms() {
	defer h.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.removeEmptyRooms()
		case <-h.stop:
			return
		}
	}
}

func (h *Hub) removeEmptyRooms() {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	for postID, room := range h.rooms {
		if room.ClientCount() == 0 {
			close(room.stop)
			delete(h.rooms, postID)
			logrus.WithField("post_id", postID).Debug("removed empty comment room")
		}
	}
}

// room returns the existing room of postID or creates it
func (h *Hub) room(postID string) *Room {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	if room, exists := h.rooms[postID]; exists {
		return room
	}

	room := &Room{
		hub:        h,
		postID:     postID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client, 16),
		requests:   make(chan clientRequest, 64),
		refresh:    make(chan *models.CommentEvent, 1),
		stop:       make(chan struct{}),
	}
	h.rooms[postID] = room

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		room.run()
	}()
	return room
}

// RoomClientCount returns number of subscribers of a post
func (h *Hub) RoomClientCount(postID string) int {
	h.roomsMu.RLock()
	room, ok := h.rooms[postID]
	h.roomsMu.RUnlock()
	if !ok {
		return 0
	}
	return room.ClientCount()
}

// Full reports whether postID already has the maximum number of subscribers
func (h *Hub) Full(postID string) bool {
	return h.RoomClientCount(postID) >= h.maxRoomSize
}

// RoomCount returns the number of posts being watched
func (h *Hub) RoomCount() int {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return len(h.rooms)
}

// Stop disconnects every subscriber and stops listening to the bus
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		logrus.Info("stopping websocket hub")
		if h.unsubscribe != nil {
			h.unsubscribe()
		}
		close(h.stop)

		h.roomsMu.Lock()
		for postID, room := range h.rooms {
			close(room.stop)
			delete(h.rooms, postID)
		}
		h.roomsMu.Unlock()

		h.wg.Wait()
		logrus.Info("websocket hub stopped")
	})
}

// ClientCount returns the number of subscribers in the room
func (r *Room) ClientCount() int {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	return len(r.clients)
}

// run owns the room state: the client set, each client's expansions and the
// most recently built forest.
func (r *Room) run() {
	for {
		select {
		case client := <-r.register:
			r.handleRegister(client)
		case client := <-r.unregister:
			r.drop(client)
		case req := <-r.requests:
			r.handleRequest(req)
		case evt := <-r.refresh:
			r.rebuild(evt)
		case <-r.stop:
			r.handleStop()
			return
		}
	}
}

func (r *Room) handleRegister(client *Client) {
	r.clientsMu.Lock()
	if len(r.clients) >= r.hub.maxRoomSize {
		r.clientsMu.Unlock()
		logrus.WithField("post_id", r.postID).Warn("comment room full, rejecting subscriber")
		close(client.send)
		client.rejected <- ErrRoomFull
		return
	}
	r.clients[client] = true
	r.clientsMu.Unlock()
	client.rejected <- nil

	if r.latest == nil {
		if !r.build() {
			client.enqueue(r.errorMessage("could not load comments"))
			return
		}
	}
	client.enqueue(r.messageFor(client, nil))
}

func (r *Room) handleRequest(req clientRequest) {
	c := req.client
	r.clientsMu.RLock()
	_, member := r.clients[c]
	r.clientsMu.RUnlock()
	if !member {
		return
	}

	switch req.msg.Type {
	case TypeExpand:
		if c.expansions[req.msg.CommentID] < thread.MaxExpansions {
			c.expansions[req.msg.CommentID]++
		}
	case TypeCollapse:
		delete(c.expansions, req.msg.CommentID)
	case TypeRefresh:
		if !r.build() {
			c.enqueue(r.errorMessage("could not load comments"))
			return
		}
	case TypePing:
		c.enqueue(&Message{Type: TypePong, PostID: r.postID, Timestamp: time.Now().UTC()})
		return
	case "":
		c.enqueue(r.errorMessage("invalid message"))
		return
	default:
		c.enqueue(r.errorMessage("unknown message type " + req.msg.Type))
		return
	}
	c.enqueue(r.messageFor(c, nil))
}

// rebuild reloads the thread after evt and pushes it to everyone
func (r *Room) rebuild(evt *models.CommentEvent) {
	if !r.build() {
		return
	}
	r.clientsMu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.clientsMu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(r.messageFor(c, evt)) {
			logrus.WithField("user_id", c.userID).Warn("subscriber send buffer full, disconnecting")
			r.drop(c)
		}
	}
	logrus.WithFields(logrus.Fields{
		"post_id": r.postID,
		"clients": len(clients),
	}).Debug("comment thread pushed")
}

// build loads and builds the thread. It reports false when loading failed.
func (r *Room) build() bool {
	ctx, cancel := utils.WithTimeout(context.Background())
	defer cancel()

	snap, err := r.hub.comments.Thread(ctx, r.postID)
	if err != nil {
		logrus.WithError(err).WithField("post_id", r.postID).Error("failed to build comment thread")
		return false
	}
	r.latest = snap.Comments
	return true
}

func (r *Room) messageFor(c *Client, evt *models.CommentEvent) *Message {
	snap := thread.NewSnapshot(r.postID, r.latest)
	if c.disclosed {
		snap.Views = r.hub.comments.Policy().Apply(r.latest, c.expansions)
		snap.Comments = nil
	}
	return &Message{
		Type:      TypeThread,
		PostID:    r.postID,
		Thread:    snap,
		Event:     evt,
		Timestamp: time.Now().UTC(),
	}
}

func (r *Room) errorMessage(text string) *Message {
	return &Message{Type: TypeError, PostID: r.postID, Error: text, Timestamp: time.Now().UTC()}
}

// drop removes a client and closes its send channel, which ends its writePump
func (r *Room) drop(c *Client) {
	r.clientsMu.Lock()
	defer r.clientsMu.Unlock()
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}
}

func (r *Room) handleStop() {
	r.clientsMu.Lock()
	for client := range r.clients {
		close(client.send)
		delete(r.clients, client)
	}
	r.clientsMu.Unlock()
	logrus.WithField("post_id", r.postID).Debug("comment room stopped")
}

// Client is one websocket subscriber
type Client struct {
	room       *Room
	conn       *websocket.Conn
	send       chan *Message
	rejected   chan error
	userID     string
	disclosed  bool
	expansions map[string]int
	onClose    func()
}

// enqueue hands msg to the writer without blocking
func (c *Client) enqueue(msg *Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// readPump turns client messages into room requests
func (c *Client) readPump() {
	defer func() {
		select {
		case c.room.unregister <- c:
		case <-c.room.stop:
		}
		c.conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Warn("websocket read error")
			}
			return
		}

		// an empty type is answered with an error by the room
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = ClientMessage{}
		}

		select {
		case c.room.requests <- clientRequest{client: c, msg: msg}:
		case <-c.room.stop:
			return
		}
	}
}

// writePump writes messages to WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SubscribeOptions describe a new subscriber
type SubscribeOptions struct {
	UserID     string
	Disclosed  bool
	Expansions map[string]int
	OnClose    func()
}

// ServeClient registers conn as a subscriber of postID and starts its pumps.
// It returns ErrRoomFull when the post is at capacity; conn is left open
// for the caller to close.
func (h *Hub) ServeClient(conn *websocket.Conn, postID string, opts SubscribeOptions) error {
	expansions := opts.Expansions
	if expansions == nil {
		expansions = make(map[string]int)
	}
	client := &Client{
		conn:       conn,
		send:       make(chan *Message, 64),
		rejected:   make(chan error, 1),
		userID:     opts.UserID,
		disclosed:  opts.Disclosed,
		expansions: expansions,
		onClose:    opts.OnClose,
	}

	for registered := false; !registered; {
		select {
		case <-h.stop:
			return ErrHubStopped
		default:
		}
		// the room may be cleaned up between lookup and register; retry then
		room := h.room(postID)
		client.room = room
		select {
		case room.register <- client:
			registered = true
		case <-room.stop:
		}
	}
	if err := <-client.rejected; err != nil {
		return err
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
	return nil
}
