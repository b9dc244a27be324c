// Package outbox defines the in-process event contract used to fan checkout
// lifecycle events out to background consumers.
package outbox

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("outbox: bus is stopped")

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
