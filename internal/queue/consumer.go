package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer consumes webhook events from a RabbitMQ queue
type Consumer struct {
	conn      *Connection
	queueName string
	handler   EventHandler
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// EventHandler processes one webhook event
type EventHandler func(event *Event) error

// NewConsumer creates a new consumer instance
func NewConsumer(conn *Connection, queueName string, handler EventHandler) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	// Same settings as the publisher: durable, non-auto-delete
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

	return &Consumer{
		conn:      conn,
		queueName: queueName,
		handler:   handler,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}, nil
}

// Start starts consuming events from the queue
func (c *Consumer) Start() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	// Process one event at a time; response handling mutates enrollments and
	// must stay serialized.
	err = ch.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual acknowledgement)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		defer close(c.doneChan)

		for {
			select {
			case <-c.stopChan:
				logrus.Info("event consumer stopping")
				return
			case d, ok := <-msgs:
				if !ok {
					logrus.Warn("delivery channel closed")
					return
				}

				if err := c.processDelivery(d); err != nil {
					logrus.WithError(err).Error("failed to process webhook event")
					d.Nack(false, true) // requeue for retry
				} else {
					d.Ack(false)
				}
			}
		}
	}()

	logrus.WithField("queue", c.queueName).Info("event consumer started")
	return nil
}

// Stop stops consuming events gracefully
func (c *Consumer) Stop() error {
	close(c.stopChan)
	<-c.doneChan
	return nil
}

func (c *Consumer) processDelivery(d amqp.Delivery) error {
	var event Event
	if err := json.Unmarshal(d.Body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if err := c.handler(&event); err != nil {
		return fmt.Errorf("handler failed: %w", err)
	}

	return nil
}
