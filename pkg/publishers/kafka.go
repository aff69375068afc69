package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// kafkaWriter is the subset of kafka.Writer used by kafkaSender.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaSender struct {
	topic  string
	writer kafkaWriter
	log    Logger
}

// newKafkaPublisher creates a Kafka publisher from its config entry.
func newKafkaPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Kafka == nil {
		return nil, fmt.Errorf("publisher %q missing kafka configuration", cfg.ID)
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Brokers...),
		Topic:                  cfg.Kafka.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: cfg.Kafka.AutoCreateTopic,
	}

	return &queuePublisher{
		id:  cfg.ID,
		typ: TypeKafka,
		sender: &kafkaSender{
			topic:  cfg.Kafka.Topic,
			writer: writer,
			log:    loggerOrDiscard(log),
		},
	}, nil
}

// Send writes the event keyed by interview id so one interview stays on one partition.
func (k *kafkaSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.InterviewID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(evt.Kind)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.log.ErrorObj("kafka publisher send failed", "publisher_kafka_error", map[string]any{
			"topic": k.topic,
			"error": err.Error(),
		})
		return fmt.Errorf("write to kafka: %w", err)
	}
	k.log.DebugObj("kafka publisher delivered event", "publisher_kafka_delivery", deliveryFields("topic", k.topic, evt))
	return nil
}

func (k *kafkaSender) Close() error { return k.writer.Close() }
