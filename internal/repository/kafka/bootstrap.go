package kafka

import (
	"context"

	"go.uber.org/zap"
)

// BootstrapConsumer makes sure the topic exists before the reader joins its group.
// A failed ensure is logged; the reader still starts and retries on its own.
func BootstrapConsumer(ctx context.Context, cfg ConsumerConfig, log *zap.Logger) *Consumer {
	if err := EnsureTopics(ctx, cfg.Brokers, log, TopicSpec{Name: cfg.Topic, NumPartitions: cfg.Partitions}); err != nil && log != nil {
		log.Warn("ensure consumer topic", zap.String("topic", cfg.Topic), zap.Error(err))
	}
	return NewConsumer(cfg, log)
}

func BootstrapProducer(ctx context.Context, cfg ProducerConfig, log *zap.Logger) *Producer {
	if err := EnsureTopics(ctx, cfg.Brokers, log, TopicSpec{Name: cfg.Topic, NumPartitions: cfg.Partitions}); err != nil && log != nil {
		log.Warn("ensure producer topic", zap.String("topic", cfg.Topic), zap.Error(err))
	}
	return NewProducer(cfg, log)
}
