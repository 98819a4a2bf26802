package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"hbnb/src/infra/kafka"
	"hbnb/src/services/events"
)

// ModelEventsConsumer acompanha o tópico de eventos de modelo e escreve uma linha por evento.
type ModelEventsConsumer struct {
	logger *slog.Logger
	out    io.Writer
	class  string
}

// NewModelEventsConsumer filtra pelo header class quando class não é vazio.
func NewModelEventsConsumer(logger *slog.Logger, out io.Writer, class string) *ModelEventsConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelEventsConsumer{
		logger: logger,
		out:    out,
		class:  class,
	}
}

func (c *ModelEventsConsumer) Start(ctx context.Context, kafkaClient *kafka.KafkaClient, topic string) error {
	c.logger.Info("Starting model events consumer", "topic", topic, "class", c.class)

	return kafkaClient.Consumer(ctx, c.HandleMessages, topic)
}

func (c *ModelEventsConsumer) HandleMessages(messages []kafka.Message) error {
	for _, msg := range messages {
		if c.class != "" && msg.Headers["class"] != c.class {
			continue
		}

		var event events.ModelEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			// mensagem inválida não pode travar o grupo: loga e segue
			c.logger.Error("Failed to unmarshal model event", "error", err, "key", msg.Key)
			continue
		}

		if _, err := fmt.Fprintf(c.out, "%s %s %s\n", event.OccurredAt, event.EventType, event.Key); err != nil {
			return fmt.Errorf("failed to write event %s: %w", event.EventID, err)
		}
	}

	return nil
}
