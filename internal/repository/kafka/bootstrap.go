package kafka

import (
	"context"
	"time"

	"github.com/NordCoder/Sentinel/internal/obs/retry"
	"go.uber.org/zap"
)

// BootstrapAlertEvents provisions the status topic and returns a publisher for it.
func BootstrapAlertEvents(ctx context.Context, brokers []string, topic string, log *zap.Logger) (*AlertEventsKafka, *Producer, error) {
	err := retry.Do(ctx, retry.BootstrapPolicy("kafka.topic", log), func(ctx context.Context) error {
		return EnsureTopic(ctx, brokers, TopicSpec{
			Name:              topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
			MaxWait:           5 * time.Second,
		}, log)
	})
	if err != nil {
		return nil, nil, err
	}
	p := NewProducer(brokers, topic, log)
	return NewAlertEventsKafka(p), p, nil
}
