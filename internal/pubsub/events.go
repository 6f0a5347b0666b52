// Package pubsub fans events out from a single producer, such as the display
// driver or the logger, to any number of listeners.
package pubsub

import (
	"context"
	"time"
)

// EventType says what happened to the payload.
type EventType string

const (
	// UpdatedEvent carries new content, such as a redrawn screen.
	UpdatedEvent EventType = "updated"
	// ClearedEvent reports that the content was wiped.
	ClearedEvent EventType = "cleared"
	// LoggedEvent carries one formatted log line.
	LoggedEvent EventType = "logged"
)

// Event is one published payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out event channels that close with ctx.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher accepts events. Implementations must not block the caller.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
