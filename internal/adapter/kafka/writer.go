package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/geo-sitemap-service/internal/config"
	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

const eventTypeSitemapUpdated = "sitemap_updated"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes sitemap updates to a Kafka topic.
// It implements pipeline.Notifier.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured notify topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaNotifyTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the notifier in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Notify publishes one update keyed by sitemap URL.
func (w *Writer) Notify(ctx context.Context, update domain.SitemapUpdate) error {
	msg, err := serializeToMessage(update)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return eris.Wrap(err, "publish sitemap update")
	}
	w.logger.Debug("sitemap update published", "sitemap", update.SitemapURL)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SitemapUpdate into a Kafka message.
func serializeToMessage(update domain.SitemapUpdate) (kafkago.Message, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return kafkago.Message{}, eris.Wrap(err, "serialize sitemap update")
	}
	return kafkago.Message{
		Key:   []byte(update.SitemapURL),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventTypeSitemapUpdated)},
			{Key: "updated_at", Value: []byte(update.UpdatedAt.UTC().Format(time.RFC3339))},
			{Key: "event_id", Value: []byte(uuid.NewString())},
		},
	}, nil
}
