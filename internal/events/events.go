// Package events fans comment changes out to every server instance so that
// websocket subscribers see a rebuilt thread no matter which instance took
// the write.
package events

import (
	"context"
	"errors"
	"sync"

	"inkwell/pkg/models"
)

// ErrClosed is returned after Close
var ErrClosed = errors.New("event bus closed")

// Handler receives every comment event published on the bus
type Handler func(models.CommentEvent)

// Bus publishes and delivers comment events
type Bus interface {
	Publish(ctx context.Context, evt models.CommentEvent) error
	// Subscribe registers h; the returned func removes it.
	Subscribe(h Handler) (unsubscribe func(), err error)
	Close() error
}

// Local delivers events synchronously inside one process.
type Local struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
	closed   bool
}

func NewLocal() *Local {
	return &Local{handlers: make(map[int]Handler)}
}

func (b *Local) Publish(_ context.Context, evt models.CommentEvent) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
	return nil
}

func (b *Local) Subscribe(h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	id := b.next
	b.next++
	b.handlers[id] = h
	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}, nil
}

func (b *Local) Close() error {
	b.mu.Lock()
	b.closed = true
	b.handlers = make(map[int]Handler)
	b.mu.Unlock()
	return nil
}
