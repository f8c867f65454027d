package sink

import (
	"context"
	"encoding/json"
	"strconv"

	"order-relay/internal/model"

	"github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers  []string
	Topic    string
	BatchMax int // default 100
}

// Kafka is a thin wrapper around segmentio/kafka-go Writer that mirrors
// change events to a topic for external consumers. Messages are keyed by
// order id so per-order ordering survives partitioning.
type Kafka struct {
	w *kafka.Writer
}

func NewKafkaFromConfig(c Config) *Kafka {
	max := c.BatchMax
	if max <= 0 {
		max = 100
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        c.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    max,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Kafka{w: w}
}

func (k *Kafka) Publish(ctx context.Context, e model.ChangeEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.ID, 10)),
		Value: value,
	})
}

func (k *Kafka) Close() error { return k.w.Close() }
