package secondary

import (
	"context"
	"time"
)

// EventPublisher mirrors committed events to an external sink.
// Implementations must not be called inside a store transaction.
type EventPublisher interface {
	Publish(ctx context.Context, events []*EventRecord) error
	Close() error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}
