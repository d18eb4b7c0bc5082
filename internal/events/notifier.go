package events

import (
	"context"
	"encoding/json"

	"github.com/practice-sem-2/chat-backend/internal/models"
)

// Publisher is the pub/sub transport the notifier fans out to. Publish must
// be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Notifier pushes realtime notifications to per-chat and per-user channels.
// Delivery is best effort: the dispatcher logs and drops on failure.
type Notifier struct {
	pub Publisher
}

func NewNotifier(pub Publisher) *Notifier {
	return &Notifier{
		pub: pub,
	}
}

func (n *Notifier) Handle(ctx context.Context, event models.Event) error {
	envelope, channel, err := buildEnvelope(event)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return n.pub.Publish(ctx, channel, payload)
}
