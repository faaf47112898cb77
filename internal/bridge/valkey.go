// Package bridge fans relayed events out across server instances over
// valkey pub/sub, so users connected to different instances still hear
// each other.
package bridge

import (
	"context"

	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"
)

// Valkey implements ws.Bridge on a valkey pub/sub channel.
type Valkey struct {
	client  valkey.Client
	channel string
	logger  *zap.Logger
}

// NewValkey connects to the valkey server at url (e.g.
// "redis://localhost:6379") and publishes on the given channel.
func NewValkey(url, channel string, logger *zap.Logger) (*Valkey, error) {
	opt, err := valkey.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, err
	}
	return &Valkey{client: client, channel: channel, logger: logger}, nil
}

// Publish sends one frame to every subscribed instance, including this
// one; the hub filters its own frames by origin id.
func (b *Valkey) Publish(ctx context.Context, frame []byte) error {
	cmd := b.client.B().Publish().Channel(b.channel).Message(string(frame)).Build()
	return b.client.Do(ctx, cmd).Error()
}

// Subscribe blocks delivering frames until ctx is cancelled or the
// connection fails.
func (b *Valkey) Subscribe(ctx context.Context, deliver func(frame []byte)) error {
	cmd := b.client.B().Subscribe().Channel(b.channel).Build()
	return b.client.Receive(ctx, cmd, func(msg valkey.PubSubMessage) {
		deliver([]byte(msg.Message))
	})
}

// Close releases the valkey connection.
func (b *Valkey) Close() {
	b.client.Close()
}
