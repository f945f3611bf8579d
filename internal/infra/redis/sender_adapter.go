package redis

import (
	"context"
	"fmt"

	"weather-poller/internal/domain/gateway/queue"
	"weather-poller/pkg/log"
	pkgredis "weather-poller/pkg/redis"

	"go.uber.org/zap"
)

// SenderAdapter adapts the pkg/redis.Publisher to the domain queue.Sender interface
type SenderAdapter struct {
	publisher *pkgredis.Publisher
}

// NewSenderAdapter creates a queue.Sender that publishes JSON over Redis pub/sub
func NewSenderAdapter(publisher *pkgredis.Publisher) queue.Sender {
	return &SenderAdapter{publisher: publisher}
}

// SendMessage publishes body as JSON on the destination channel
func (adapter *SenderAdapter) SendMessage(ctx context.Context, destination string, body any) error {
	receivers, err := adapter.publisher.PublishJSON(ctx, destination, body)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", adapter.publisher.ChannelName(destination), err)
	}
	log.Debug("message published",
		zap.String("channel", adapter.publisher.ChannelName(destination)),
		zap.Int64("receivers", receivers))
	return nil
}
