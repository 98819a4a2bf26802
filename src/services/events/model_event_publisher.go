package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"hbnb/src/domain"
	"hbnb/src/infra/kafka"

	"github.com/google/uuid"
)

const (
	sourceService = "hbnb-storage"
	schemaVersion = "v1"
)

// MessageProducer é o lado de escrita do KafkaClient.
type MessageProducer interface {
	Producer(messages []kafka.Message, topic string) error
}

// ModelEvent é o payload publicado para cada alteração confirmada por um Save.
type ModelEvent struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	Key        string         `json:"key"`
	Class      string         `json:"class"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}

// ModelEventPublisher implementa domain.ChangeNotifier publicando no kafka.
type ModelEventPublisher struct {
	logger   *slog.Logger
	producer MessageProducer
	topic    string
}

func NewModelEventPublisher(logger *slog.Logger, producer MessageProducer, topic string) *ModelEventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelEventPublisher{
		logger:   logger,
		producer: producer,
		topic:    topic,
	}
}

func (p *ModelEventPublisher) Notify(ctx context.Context, changes []domain.ModelChange) error {
	if len(changes) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(changes))
	for _, change := range changes {
		event := NewModelEvent(change)

		payload, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal model event", "error", err, "key", change.Key)
			continue
		}

		messages = append(messages, kafka.Message{
			// a chave composta garante a ordem por instância dentro da partição
			Key:     change.Key,
			Value:   payload,
			Headers: eventHeaders(event),
		})
	}

	if err := p.producer.Producer(messages, p.topic); err != nil {
		return fmt.Errorf("failed to publish model events to topic %s: %w", p.topic, err)
	}

	p.logger.Debug("Published model events", "topic", p.topic, "events_count", len(messages))
	return nil
}

func NewModelEvent(change domain.ModelChange) ModelEvent {
	return ModelEvent{
		EventID:    uuid.NewString(),
		EventType:  "model_" + string(change.Type),
		Key:        change.Key,
		Class:      change.Class,
		ID:         change.ID,
		Attributes: change.Attributes,
		OccurredAt: domain.FormatTime(change.OccurredAt),
	}
}

func eventHeaders(event ModelEvent) map[string]string {
	return map[string]string{
		"event_type":     event.EventType,
		"class":          event.Class,
		"source_service": sourceService,
		"schema_version": schemaVersion,
		"event_id":       event.EventID,
	}
}
