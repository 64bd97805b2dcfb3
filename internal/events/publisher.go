// Package events delivers submitted-invoice events to Kafka for the GİB
// submission worker.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/omrozmn/x-ear-billing/internal/billing"
	"github.com/omrozmn/x-ear-billing/internal/logger"
)

// KafkaPublisher implements billing.Publisher on a kafka-go writer.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewKafkaPublisher builds a publisher for the given comma-separated broker
// list and topic. Returns nil when no brokers are configured, which
// disables event delivery.
func NewKafkaPublisher(brokersCSV, topic string) *KafkaPublisher {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		log: logger.WithComponent("kafka-publisher"),
	}
}

// PublishSubmitted writes the event keyed by invoice id, so replays of the
// same invoice land in the same partition.
func (p *KafkaPublisher) PublishSubmitted(ctx context.Context, event billing.SubmittedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.InvoiceID.String()),
		Value: payload,
	})
	if err != nil {
		return err
	}
	p.log.Debug().
		Str("invoice_id", event.InvoiceID.String()).
		Str("topic", p.writer.Topic).
		Msg("Submitted event published")
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
