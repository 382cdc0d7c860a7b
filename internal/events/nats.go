package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"inkwell/pkg/logger"
	"inkwell/pkg/models"
)

// NATSOptions configures the NATS connection
type NATSOptions struct {
	URL           string
	SubjectPrefix string
	ClientName    string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NATS publishes each event on <prefix>.<post id> with core NATS pub/sub.
// Delivery is at-most-once; a missed event only delays a websocket refresh.
type NATS struct {
	conn   *nats.Conn
	prefix string
}

// NewNATS connects to the server in opts.URL
func NewNATS(opts NATSOptions) (*NATS, error) {
	if opts.URL == "" {
		return nil, errors.New("nats url is empty")
	}
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = "inkwell.comments"
	}
	if opts.MaxReconnects == 0 {
		opts.MaxReconnects = 10
	}
	if opts.ReconnectWait == 0 {
		opts.ReconnectWait = 2 * time.Second
	}

	nc, err := nats.Connect(opts.URL,
		nats.Name(opts.ClientName),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.RetryOnFailedConnect(false),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Infof("nats reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s (max_reconnects=%d, wait=%s): %w",
			opts.URL, opts.MaxReconnects, opts.ReconnectWait, err)
	}
	return &NATS{conn: nc, prefix: opts.SubjectPrefix}, nil
}

// Subject returns the subject events for postID are published on
func (b *NATS) Subject(postID string) string {
	return b.prefix + "." + postID
}

func (b *NATS) Publish(_ context.Context, evt models.CommentEvent) error {
	if b.conn.IsClosed() {
		return ErrClosed
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode comment event: %w", err)
	}
	subject := b.Subject(evt.PostID)
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	logger.Events(subject, string(evt.Type), evt.PostID)
	return nil
}

func (b *NATS) Subscribe(h Handler) (func(), error) {
	sub, err := b.conn.Subscribe(b.prefix+".*", func(msg *nats.Msg) {
		var evt models.CommentEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			logger.WithError(err).WithField("subject", msg.Subject).Warn("dropping malformed comment event")
			return
		}
		h(evt)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s.*: %w", b.prefix, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			logger.WithError(err).Warn("nats unsubscribe failed")
		}
	}, nil
}

// Close drains pending messages and closes the connection
func (b *NATS) Close() error {
	if b.conn.IsClosed() {
		return nil
	}
	return b.conn.Drain()
}
