// Package kafka publishes harvested station records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/sos-station-harvester/internal/config"
	"github.com/couchcryptid/sos-station-harvester/internal/domain"
	"github.com/couchcryptid/sos-station-harvester/internal/observability"
)

// Writer produces station records to a Kafka topic.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// PublishRecords serializes every record in the set and publishes them in a
// single WriteMessages call.
func (w *Writer) PublishRecords(ctx context.Context, records *domain.RecordSet) error {
	recs := records.Records()
	if len(recs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(recs))
	for i := range recs {
		msg, err := serializeToMessage(recs[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.metrics.RecordsPublished.Add(float64(len(msgs)))
	w.logger.Info("records published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a StationRecord into a Kafka message keyed by
// station URN.
func serializeToMessage(rec domain.StationRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station record: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "harvested_at", Value: []byte(rec.HarvestedAt.Format(time.RFC3339))},
	}
	if rec.PlatformType != nil {
		headers = append(headers, kafkago.Header{Key: "platform_type", Value: []byte(*rec.PlatformType)})
	}
	return kafkago.Message{
		Key:     []byte(rec.StationURN),
		Value:   data,
		Headers: headers,
	}, nil
}
