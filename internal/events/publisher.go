package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/mesaviva/pos-payments-terminal/internal/config"
	"github.com/mesaviva/pos-payments-terminal/internal/requestctx"
)

// EventType represents the type of payment event.
type EventType string

const (
	EventTypePaymentProcessed EventType = "payment.processed"
	EventTypeAccountSplit     EventType = "account.split"
)

// PaymentEvent announces a payment-related action on a table. The POS
// core owns the committed result; these events only feed reporting and
// the kitchen/table views that want to refresh promptly.
type PaymentEvent struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	TableID       string          `json:"table_id"`
	SessionID     string          `json:"session_id"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// PaymentProcessedData is the payload of a payment.processed event.
type PaymentProcessedData struct {
	Method    string  `json:"method"`
	Total     float64 `json:"total"`
	Tip       float64 `json:"tip"`
	SplitBill bool    `json:"split_bill"`
	Divisions int     `json:"divisions,omitempty"`
}

// AccountSplitData is the payload of an account.split event.
type AccountSplitData struct {
	Divisions int     `json:"divisions"`
	Subtotal  float64 `json:"subtotal"`
	Total     float64 `json:"total"`
}

// Publisher announces payment activity.
type Publisher interface {
	PublishPaymentProcessed(ctx context.Context, tableID, sessionID string, data PaymentProcessedData) error
	PublishAccountSplit(ctx context.Context, tableID, sessionID string, data AccountSplitData) error
}

// Ensure KafkaPublisher implements Publisher
var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher publishes payment events to Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.PaymentsTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		topic:  cfg.PaymentsTopic,
		logger: logger,
	}
}

// PublishPaymentProcessed publishes a payment.processed event.
func (p *KafkaPublisher) PublishPaymentProcessed(ctx context.Context, tableID, sessionID string, data PaymentProcessedData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.createEvent(ctx, EventTypePaymentProcessed, tableID, sessionID, payload))
}

// PublishAccountSplit publishes an account.split event.
func (p *KafkaPublisher) PublishAccountSplit(ctx context.Context, tableID, sessionID string, data AccountSplitData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.createEvent(ctx, EventTypeAccountSplit, tableID, sessionID, payload))
}

func (p *KafkaPublisher) createEvent(ctx context.Context, eventType EventType, tableID, sessionID string, data []byte) *PaymentEvent {
	return &PaymentEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		TableID:       tableID,
		SessionID:     sessionID,
		Data:          data,
		Timestamp:     time.Now(),
		CorrelationID: requestctx.RequestID(ctx),
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, event *PaymentEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.TableID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			"event_id", event.ID,
			"event_type", event.Type,
			"table_id", event.TableID,
			"error", err,
		)
		return err
	}

	p.logger.Debug("event published",
		"event_id", event.ID,
		"event_type", event.Type,
		"table_id", event.TableID,
	)
	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("closing kafka publisher")
	return p.writer.Close()
}

// NopPublisher drops all events. Used when payment events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishPaymentProcessed(ctx context.Context, tableID, sessionID string, data PaymentProcessedData) error {
	return nil
}

func (NopPublisher) PublishAccountSplit(ctx context.Context, tableID, sessionID string, data AccountSplitData) error {
	return nil
}

// MockPublisher records events for tests.
type MockPublisher struct {
	Events []*PaymentEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishPaymentProcessed(ctx context.Context, tableID, sessionID string, data PaymentProcessedData) error {
	m.Events = append(m.Events, &PaymentEvent{
		Type:      EventTypePaymentProcessed,
		TableID:   tableID,
		SessionID: sessionID,
	})
	return nil
}

func (m *MockPublisher) PublishAccountSplit(ctx context.Context, tableID, sessionID string, data AccountSplitData) error {
	m.Events = append(m.Events, &PaymentEvent{
		Type:      EventTypeAccountSplit,
		TableID:   tableID,
		SessionID: sessionID,
	})
	return nil
}
