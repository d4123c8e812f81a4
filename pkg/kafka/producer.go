package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/segmentio/kafka-go"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// CatalogEvent represents a change in the canonical catalog
type CatalogEvent struct {
	EventType string    `json:"event_type"` // game.created, snapshot.imported, collision.detected, search.rebuilt
	Store     string    `json:"store,omitempty"`
	GameID    string    `json:"game_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	CName     string    `json:"cname,omitempty"`
	File      string    `json:"file,omitempty"`
	Checksum  string    `json:"checksum,omitempty"`
	Rows      int       `json:"rows,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishCatalogEvent publishes a catalog event to Kafka. Messages are keyed
// by cname when present so consumers see per-game ordering, falling back to
// the store name for file-level events.
func (p *Producer) PublishCatalogEvent(ctx context.Context, event *CatalogEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishCatalogEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := event.CName
	if key == "" {
		key = event.Store
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "store", Value: []byte(event.Store)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish catalog event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"store":      event.Store,
		"cname":      event.CName,
	}).Debug("Published catalog event")

	return nil
}
