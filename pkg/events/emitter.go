// Package events handles event emission for catalog lifecycle changes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/tracing"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes catalog events. A nil producer disables emission, so the
// import passes run unchanged when Kafka is turned off.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitGameCreated emits a game.created event for a newly resolved entity.
func (e *Emitter) EmitGameCreated(ctx context.Context, store string, gameID uuid.UUID, name, cname string) {
	if e == nil || e.producer == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitGameCreated")
	defer span.End()

	event := &kafka.CatalogEvent{
		EventType: "game.created",
		Store:     store,
		GameID:    gameID.String(),
		Name:      name,
		CName:     cname,
	}
	if err := e.producer.PublishCatalogEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit game.created event")
	}
}

// EmitFileImported emits a snapshot.imported event after a file commits.
func (e *Emitter) EmitFileImported(ctx context.Context, store, file, checksum string, rows int) {
	if e == nil || e.producer == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitFileImported")
	defer span.End()

	event := &kafka.CatalogEvent{
		EventType: "snapshot.imported",
		Store:     store,
		File:      file,
		Checksum:  checksum,
		Rows:      rows,
	}
	if err := e.producer.PublishCatalogEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit snapshot.imported event")
	}
}

// EmitCollision emits a collision.detected event for offline cleanup.
func (e *Emitter) EmitCollision(ctx context.Context, store, name, cname string) {
	if e == nil || e.producer == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitCollision")
	defer span.End()

	event := &kafka.CatalogEvent{
		EventType: "collision.detected",
		Store:     store,
		Name:      name,
		CName:     cname,
	}
	if err := e.producer.PublishCatalogEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit collision.detected event")
	}
}

// EmitSearchRebuilt emits a search.rebuilt event after the view rebuild.
func (e *Emitter) EmitSearchRebuilt(ctx context.Context, rows int) {
	if e == nil || e.producer == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSearchRebuilt")
	defer span.End()

	event := &kafka.CatalogEvent{
		EventType: "search.rebuilt",
		Rows:      rows,
	}
	if err := e.producer.PublishCatalogEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit search.rebuilt event")
	}
}
