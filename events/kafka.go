package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaSink writes events keyed by tenant and order so one order's events
// stay on one partition.
type KafkaSink struct {
	Writer *kafka.Writer
}

func NewKafkaSink(broker, topic string) *KafkaSink {
	return &KafkaSink{Writer: &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}}
}

func (s *KafkaSink) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d:%d", ev.TenantID, ev.OrderID)),
		Value: payload,
	})
}

func (s *KafkaSink) Close() error { return s.Writer.Close() }
