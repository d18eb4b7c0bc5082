package events

import (
	"context"

	"github.com/practice-sem-2/chat-backend/internal/models"
	"github.com/sirupsen/logrus"
)

type Handler func(ctx context.Context, event models.Event) error

// Dispatcher routes committed domain events to the handlers registered for
// their kind. The table is filled once during process wiring; Dispatch
// treats it as read-only, so concurrent dispatch needs no locking.
type Dispatcher struct {
	handlers map[models.EventKind][]Handler
	log      *logrus.Logger
}

func NewDispatcher(log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[models.EventKind][]Handler),
		log:      log,
	}
}

// Register appends a handler for the kind. Must only be called before the
// first Dispatch.
func (d *Dispatcher) Register(kind models.EventKind, handler Handler) {
	d.handlers[kind] = append(d.handlers[kind], handler)
}

// Dispatch invokes every handler registered for each event, synchronously
// and in registration order. A handler failure or panic is logged and never
// reaches the caller: dispatch runs after the owning transaction committed,
// so a broken notification must not fail the business operation.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...models.Event) {
	for _, event := range events {
		for i, handler := range d.handlers[event.EventKind()] {
			d.invoke(ctx, event, i, handler)
		}
	}
}

func (d *Dispatcher) invoke(ctx context.Context, event models.Event, position int, handler Handler) {
	defer func() {
		if p := recover(); p != nil {
			d.log.
				WithField("event", event.EventKind()).
				WithField("handler", position).
				Errorf("event handler panicked: %v", p)
		}
	}()

	if err := handler(ctx, event); err != nil {
		d.log.
			WithField("event", event.EventKind()).
			WithField("handler", position).
			WithError(err).
			Error("event handler failed, event dropped")
	}
}
