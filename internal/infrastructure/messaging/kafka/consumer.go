package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	appanalysis "github.com/privlens/privlens/internal/application/analysis"
	appsite "github.com/privlens/privlens/internal/application/site"
	"github.com/privlens/privlens/internal/config"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/types/common"
)

// readerInterface abstracts kafka.Reader for testing.
type readerInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ChangeNotifier alerts affected users that a site's document changed.
type ChangeNotifier interface {
	NotifySiteChanged(ctx context.Context, siteID common.SiteID) (int, error)
}

// ChangeConsumer consumes site.document_changed events, flags the site's
// cached analyses as stale and notifies users with history on the site.
// Offsets are committed only after the staleness update succeeds, so a crash
// re-delivers rather than drops; the update is idempotent.
type ChangeConsumer struct {
	reader      readerInterface
	maintenance *appanalysis.Maintenance
	notifier    ChangeNotifier
	logger      logging.Logger
}

// NewChangeConsumer creates the consumer on the configured group.  notifier
// may be nil to disable user notification.
func NewChangeConsumer(cfg config.KafkaConfig, maintenance *appanalysis.Maintenance, notifier ChangeNotifier, logger logging.Logger) *ChangeConsumer {
	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       TopicDocumentChanged,
		StartOffset: startOffset,
	})
	return &ChangeConsumer{
		reader:      r,
		maintenance: maintenance,
		notifier:    notifier,
		logger:      logger.Named("change-consumer"),
	}
}

// Run blocks, processing change events until ctx is cancelled.
func (c *ChangeConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("fetch failed", logging.Err(err))
			continue
		}

		if err := c.handle(ctx, msg.Value); err != nil {
			c.logger.Error("change event handling failed", logging.Err(err))
			// Leave the offset uncommitted; the event is redelivered.
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warn("offset commit failed", logging.Err(err))
		}
	}
}

func (c *ChangeConsumer) handle(ctx context.Context, raw []byte) error {
	var env EventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// A malformed message can never succeed; log and drop it.
		c.logger.Warn("dropping malformed event", logging.Err(err))
		return nil
	}
	var ev appsite.ChangeEvent
	if err := env.DecodePayload(&ev); err != nil {
		c.logger.Warn("dropping undecodable change event",
			logging.String("event_id", env.EventID),
			logging.Err(err),
		)
		return nil
	}

	flagged, err := c.maintenance.MarkSiteStale(ctx, ev.SiteID)
	if err != nil {
		return err
	}
	c.logger.Info("site analyses flagged stale",
		logging.String("site_id", string(ev.SiteID)),
		logging.String("content_type", string(ev.ContentType)),
		logging.Int64("flagged", flagged),
	)

	if c.notifier != nil {
		// Notification is best effort; the staleness update is already
		// durable and the alert fan-out is not worth a redelivery loop.
		notified, err := c.notifier.NotifySiteChanged(ctx, ev.SiteID)
		if err != nil {
			c.logger.Warn("site change notification failed",
				logging.String("site_id", string(ev.SiteID)),
				logging.Err(err),
			)
		} else if notified > 0 {
			c.logger.Info("users notified of document change",
				logging.String("site_id", string(ev.SiteID)),
				logging.Int("notified", notified),
			)
		}
	}
	return nil
}

// Close releases the reader.
func (c *ChangeConsumer) Close() error {
	return c.reader.Close()
}
