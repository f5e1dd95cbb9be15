package events

import (
	"context"

	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler) error
}

// busDispatcher delivers events synchronously over an EventBus topic per event type.
type busDispatcher struct {
	bus    evbus.Bus
	logger *zap.Logger
}

// NewBusDispatcher creates a dispatcher instance.
func NewBusDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &busDispatcher{bus: evbus.New(), logger: logger}
}

// Publish synchronously invokes handlers for the given event.
func (d *busDispatcher) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event = event.stamped()
	}
	d.bus.Publish(string(event.Type), ctx, event)
	return nil
}

// Subscribe registers a handler for the given event type. Handler errors are logged and
// never stop delivery to the other handlers.
func (d *busDispatcher) Subscribe(eventType EventType, handler EventHandler) error {
	return d.bus.Subscribe(string(eventType), func(ctx context.Context, event Event) {
		if err := handler(ctx, event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.Error(err),
			)
		}
	})
}
