package pubsub

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrNotConnected = errors.New("pubsub client is not connected")

// Client is the publish side of the realtime transport. The gateway server
// that pushes to connected clients subscribes to the same channels on its
// own; this service only ever publishes.
type Client struct {
	addr   string
	client *redis.Client
	log    *logrus.Logger
}

func NewClient(addr string, log *logrus.Logger) *Client {
	return &Client{
		addr: addr,
		log:  log,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr: c.addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}

	c.client = client
	c.log.Infof("connected to redis at %s", c.addr)
	return nil
}

func (c *Client) Disconnect() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Publish is safe for concurrent use once Connect has returned.
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	if c.client == nil {
		return ErrNotConnected
	}

	if err := c.client.Publish(ctx, channel, payload).Err(); err != nil {
		return err
	}

	c.log.WithField("channel", channel).Debug("published message")
	return nil
}
