package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/privlens/privlens/internal/application/personalization"
	appsite "github.com/privlens/privlens/internal/application/site"
	"github.com/privlens/privlens/internal/config"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
)

const producerSource = "privlens"

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes PrivLens events.  It implements the personalization
// engine's AlertPublisher and the site service's ChangePublisher.
type Producer struct {
	writer writerInterface
	logger logging.Logger
	closed atomic.Bool
}

// NewProducer creates a Producer writing to the configured brokers.  Topic is
// selected per message.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: time.Second,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{writer: w, logger: logger.Named("kafka-producer")}
}

// newProducerWithWriter is the test seam.
func newProducerWithWriter(w writerInterface, logger logging.Logger) *Producer {
	return &Producer{writer: w, logger: logger}
}

// PublishAlert emits a privacy alert keyed by user so a user's alerts stay
// ordered within a partition.
func (p *Producer) PublishAlert(ctx context.Context, a *personalization.Alert) error {
	return p.publish(ctx, TopicPrivacyAlert, EventAlertRaised, string(a.UserID), a)
}

// PublishDocumentChanged emits a document-change event keyed by site.
func (p *Producer) PublishDocumentChanged(ctx context.Context, ev *appsite.ChangeEvent) error {
	return p.publish(ctx, TopicDocumentChanged, EventDocumentChanged, string(ev.SiteID), ev)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeInternal, "producer closed")
	}
	env, err := NewEventEnvelope(eventType, producerSource, payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: raw,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeAlertPublishFailed, "kafka publish failed").WithDetail(topic)
	}
	p.logger.Debug("event published",
		logging.String("topic", topic),
		logging.String("event_type", eventType),
		logging.String("event_id", env.EventID),
	)
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
