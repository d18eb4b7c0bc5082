package events

import (
	"context"
	"encoding/json"

	"github.com/Shopify/sarama"
	"github.com/practice-sem-2/chat-backend/internal/models"
)

// Feed mirrors every domain event onto the durable updates topic, keyed by
// chat id so one chat's updates stay ordered within a partition.
type Feed struct {
	producer sarama.SyncProducer
	cfg      *FeedConfig
}

type FeedConfig struct {
	UpdatesTopic string
}

func NewFeed(p sarama.SyncProducer, cfg *FeedConfig) *Feed {
	return &Feed{
		producer: p,
		cfg:      cfg,
	}
}

func (f *Feed) Handle(ctx context.Context, event models.Event) error {
	envelope, _, err := buildEnvelope(event)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	_, _, err = f.producer.SendMessage(&sarama.ProducerMessage{
		Topic: f.cfg.UpdatesTopic,
		Key:   sarama.StringEncoder(envelope.ChatID),
		Value: sarama.ByteEncoder(payload),
	})

	return err
}
