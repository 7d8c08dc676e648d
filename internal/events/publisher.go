// Package events publishes screening decisions to Kafka so downstream
// consumers (reporting, notification) can react to them. Publishing is
// best effort; the screening workflow never fails because an event could
// not be delivered.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/screening-service/internal/domain"
)

// Event types emitted on the screening topic.
const (
	EventTypeStatusChanged  = "screening.status_changed"
	EventTypeLabelsAssigned = "screening.labels_assigned"
	EventTypePapersImported = "screening.papers_imported"
)

// messageWriter is the subset of kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// StatusChangedEvent is emitted when a paper's screening status changes.
type StatusChangedEvent struct {
	EventType      string    `json:"event_type"`
	PaperID        string    `json:"paper_id"`
	BibtexID       string    `json:"bibtex_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Notes          string    `json:"notes,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// LabelsAssignedEvent is emitted when a paper receives a new label set.
type LabelsAssignedEvent struct {
	EventType  string    `json:"event_type"`
	PaperID    string    `json:"paper_id"`
	BibtexID   string    `json:"bibtex_id"`
	Labels     []string  `json:"labels"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PapersImportedEvent is emitted after a bulk import completes.
type PapersImportedEvent struct {
	EventType  string    `json:"event_type"`
	SourceFile string    `json:"source_file"`
	Imported   int       `json:"imported"`
	Skipped    int       `json:"skipped"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher writes screening events to a Kafka topic. Messages are keyed
// by bibtex_id so all events for a paper land on the same partition.
type Publisher struct {
	writer messageWriter
	logger zerolog.Logger
	now    func() time.Time
}

// Config holds Kafka publisher configuration.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic for screening events.
	Topic string
	// BatchTimeout bounds how long the writer buffers before flushing.
	BatchTimeout time.Duration
}

// NewPublisher creates a Kafka-backed event publisher.
func NewPublisher(cfg Config, logger zerolog.Logger) *Publisher {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	return &Publisher{
		writer: writer,
		logger: logger.With().Str("component", "event-publisher").Logger(),
		now:    time.Now,
	}
}

// PublishStatusChanged emits a status change event for a paper.
func (p *Publisher) PublishStatusChanged(ctx context.Context, paper *domain.Paper, previous domain.ScreeningStatus) error {
	event := StatusChangedEvent{
		EventType:      EventTypeStatusChanged,
		PaperID:        paper.ID.String(),
		BibtexID:       paper.BibtexID,
		PreviousStatus: string(previous),
		NewStatus:      string(paper.ScreeningStatus),
		Notes:          paper.ScreeningNotes,
		OccurredAt:     p.now().UTC(),
	}
	return p.publish(ctx, paper.BibtexID, event)
}

// PublishLabelsAssigned emits a label assignment event for a paper.
func (p *Publisher) PublishLabelsAssigned(ctx context.Context, paper *domain.Paper) error {
	event := LabelsAssignedEvent{
		EventType:  EventTypeLabelsAssigned,
		PaperID:    paper.ID.String(),
		BibtexID:   paper.BibtexID,
		Labels:     paper.Labels,
		OccurredAt: p.now().UTC(),
	}
	return p.publish(ctx, paper.BibtexID, event)
}

// PublishPapersImported emits a bulk import summary event.
func (p *Publisher) PublishPapersImported(ctx context.Context, sourceFile string, imported, skipped int) error {
	event := PapersImportedEvent{
		EventType:  EventTypePapersImported,
		SourceFile: sourceFile,
		Imported:   imported,
		Skipped:    skipped,
		OccurredAt: p.now().UTC(),
	}
	return p.publish(ctx, sourceFile, event)
}

// publish marshals the event and writes it to the topic.
func (p *Publisher) publish(ctx context.Context, key string, event interface{}) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("write event to kafka: %w", err)
	}

	p.logger.Debug().Str("key", key).Msg("published screening event")
	return nil
}

// Close flushes buffered messages and closes the Kafka writer.
func (p *Publisher) Close() error {
	p.logger.Info().Msg("closing event publisher")
	return p.writer.Close()
}
