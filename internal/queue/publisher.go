package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventType identifies the kind of webhook event carried on the queue
type EventType string

const (
	EventInbound EventType = "inbound_sms"
	EventStatus  EventType = "delivery_status"
)

// EventQueue is the queue name shared by the API publisher and the engine
// daemon consumer.
const EventQueue = "sms_events"

// Event is a webhook notification in transit from the API process to the
// engine daemon. Inbound events carry phone and body; status events carry
// the provider SID and the provider's raw status string.
type Event struct {
	Type        EventType `json:"type"`
	Phone       string    `json:"phone,omitempty"`
	Body        string    `json:"body,omitempty"`
	ProviderSID string    `json:"provider_sid,omitempty"`
	Status      string    `json:"status,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Publisher publishes webhook events to RabbitMQ
type Publisher struct {
	conn      *Connection
	queueName string
}

// NewPublisher creates a new publisher instance
func NewPublisher(conn *Connection, queueName string) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Publisher{
		conn:      conn,
		queueName: queueName,
	}, nil
}

// PublishInbound publishes an inbound SMS event
func (p *Publisher) PublishInbound(phone, body, providerSID string, receivedAt time.Time) error {
	return p.publish(&Event{
		Type:        EventInbound,
		Phone:       phone,
		Body:        body,
		ProviderSID: providerSID,
		ReceivedAt:  receivedAt,
	})
}

// PublishStatus publishes a delivery status event
func (p *Publisher) PublishStatus(providerSID, status string, receivedAt time.Time) error {
	return p.publish(&Event{
		Type:        EventStatus,
		ProviderSID: providerSID,
		Status:      status,
		ReceivedAt:  receivedAt,
	})
}

func (p *Publisher) publish(event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	err = ch.Publish(
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close closes the publisher (no-op, connection managed externally)
func (p *Publisher) Close() error {
	return nil
}
