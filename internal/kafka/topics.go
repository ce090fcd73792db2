package kafka

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"ticketstore/internal/logger"
)

// EnsureTopicsExist creates the order event topics if they are missing.
// Creation errors are logged per topic; a broker that auto-creates topics
// makes this a no-op.
func EnsureTopicsExist(brokers []string, topics []string, log *logger.Logger) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err = controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			log.Error("KAFKA", "Failed to create topic "+topic+": "+err.Error())
			continue
		}
		log.LogKafka("CREATE", topic, "topic created")
	}

	// Give the broker a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
	return nil
}
