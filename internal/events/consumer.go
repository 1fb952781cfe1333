package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mesaviva/pos-payments-terminal/internal/config"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
)

// ConfigEventType represents the type of configuration event emitted by
// the back office.
type ConfigEventType string

const (
	ConfigEventUpdated ConfigEventType = "config.updated"
)

// ConfigEvent announces a change to the restaurant-wide configuration.
// Terminals apply the embedded configuration so open payment views
// converge without a reload.
type ConfigEvent struct {
	ID        string                      `json:"id"`
	Type      ConfigEventType             `json:"type"`
	Config    *models.SystemConfiguration `json:"config"`
	Timestamp time.Time                   `json:"timestamp"`
}

// ConfigApplier receives configuration updates pushed from outside the
// terminal.
type ConfigApplier interface {
	ApplyExternal(cfg *models.SystemConfiguration)
}

// KafkaConfigConsumer consumes configuration update events from Kafka.
type KafkaConfigConsumer struct {
	reader  *kafka.Reader
	applier ConfigApplier
	logger  *slog.Logger
	stopCh  chan struct{}
}

// NewKafkaConfigConsumer creates a new Kafka-based configuration consumer.
func NewKafkaConfigConsumer(cfg config.KafkaConfig, applier ConfigApplier, logger *slog.Logger) *KafkaConfigConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.ConfigTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConfigConsumer{
		reader:  reader,
		applier: applier,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start begins consuming events. Blocks until Stop or ctx cancellation.
func (c *KafkaConfigConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting config consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("config consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error("failed to read message", "error", err)
				continue
			}

			c.handleMessage(msg)
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConfigConsumer) Stop() {
	close(c.stopCh)
	c.reader.Close()
}

func (c *KafkaConfigConsumer) handleMessage(msg kafka.Message) {
	var event ConfigEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("failed to unmarshal config event", "error", err)
		return
	}

	switch event.Type {
	case ConfigEventUpdated:
		if event.Config == nil {
			c.logger.Debug("config event without payload, ignoring", "event_id", event.ID)
			return
		}
		c.logger.Info("applying configuration update", "event_id", event.ID)
		c.applier.ApplyExternal(event.Config)
	default:
		c.logger.Debug("ignoring unknown event type", "type", event.Type)
	}
}
