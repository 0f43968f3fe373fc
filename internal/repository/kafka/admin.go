package kafka

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type TopicSpec struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	MaxWait           time.Duration
}

// EnsureTopics creates the topics through the cluster controller and waits
// until each reports partitions. Existing topics are left as they are.
func EnsureTopics(ctx context.Context, brokers []string, log *zap.Logger, specs ...TopicSpec) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	cc, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer cc.Close()

	for _, spec := range specs {
		spec.NumPartitions = max(spec.NumPartitions, 1)
		spec.ReplicationFactor = max(spec.ReplicationFactor, 1)
		if spec.MaxWait <= 0 {
			spec.MaxWait = 5 * time.Second
		}

		if err := cc.CreateTopics(kafka.TopicConfig{
			Topic:             spec.Name,
			NumPartitions:     spec.NumPartitions,
			ReplicationFactor: spec.ReplicationFactor,
		}); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
			return err
		}

		if !waitPartitions(ctx, conn, spec) {
			log.Warn("topic not confirmed ready in time", zap.String("topic", spec.Name))
			continue
		}
		log.Info("topic ready", zap.String("topic", spec.Name), zap.Int("partitions", spec.NumPartitions))
	}
	return nil
}

func waitPartitions(ctx context.Context, conn *kafka.Conn, spec TopicSpec) bool {
	deadline := time.Now().Add(spec.MaxWait)
	for time.Now().Before(deadline) {
		if ps, err := conn.ReadPartitions(spec.Name); err == nil && len(ps) > 0 {
			return true
		}
		if !sleep(ctx, 200*time.Millisecond) {
			return false
		}
	}
	return false
}
