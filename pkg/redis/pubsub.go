package redis

import (
	"context"
	"encoding/json"
	"fmt"
)

// PubSubConfig defines the configuration options for Redis publishing
type PubSubConfig struct {
	// ChannelNamespace is prefixed to every channel as namespace::channel
	ChannelNamespace string
}

// NewPubSubConfig creates a new pub/sub configuration with default values
func NewPubSubConfig() *PubSubConfig {
	return &PubSubConfig{}
}

// WithChannelNamespace sets the namespace for organizing channels
func (psc *PubSubConfig) WithChannelNamespace(namespace string) *PubSubConfig {
	psc.ChannelNamespace = namespace
	return psc
}

// Publisher handles Redis publishing operations
type Publisher struct {
	client *Client
	config *PubSubConfig
}

// NewPublisher creates a new publisher
func NewPublisher(client *Client, config *PubSubConfig) *Publisher {
	if config == nil {
		config = NewPubSubConfig()
	}
	return &Publisher{
		client: client,
		config: config,
	}
}

// ChannelName returns the full channel name for channel
func (p *Publisher) ChannelName(channel string) string {
	if p.config.ChannelNamespace != "" {
		return p.config.ChannelNamespace + "::" + channel
	}
	return channel
}

// PublishJSON publishes a JSON message to a channel and returns the number of
// subscribers that received it
func (p *Publisher) PublishJSON(ctx context.Context, channel string, message interface{}) (int64, error) {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message to JSON: %w", err)
	}
	return p.client.GetClient().Publish(ctx, p.ChannelName(channel), jsonData).Result()
}
