package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ticketstore/internal/config"
	"ticketstore/internal/models"
)

// Producer streams order lifecycle events for downstream consumers
// (reporting, mailing). Publish failures never affect the order itself;
// callers log and move on.
type Producer struct {
	writer *kafka.Writer
	topics config.TopicConfig
}

func NewProducer(brokers []string, topics config.TopicConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer, topics: topics}
}

func (p *Producer) publish(topic string, order models.Order) error {
	msgBytes, err := json.Marshal(order)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(order.ID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) PublishOrderCreated(order models.Order) error {
	return p.publish(p.topics.OrderCreated, order)
}

func (p *Producer) PublishOrderApproved(order models.Order) error {
	return p.publish(p.topics.OrderApproved, order)
}

func (p *Producer) PublishOrderRejected(order models.Order) error {
	return p.publish(p.topics.OrderRejected, order)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
