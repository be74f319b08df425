package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/models"
)

const publishTimeout = 5 * time.Second

// Publisher sends provisioning events to a durable queue through the default exchange.
type Publisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
}

var _ core.EventPublisher = (*Publisher)(nil)

// NewPublisher dials RabbitMQ and declares the queue.
func NewPublisher(uri, queue string, logger *zap.Logger) (*Publisher, error) {
	conn, ch, err := dial(uri, queue)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to RabbitMQ", zap.String("queue", queue))
	return &Publisher{conn: conn, ch: ch, queue: queue, logger: logger}, nil
}

func dial(uri, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare queue '%s': %w", queue, err)
	}
	return conn, ch, nil
}

// PublishUserProvisioned serializes evt as JSON and publishes it as a persistent message.
func (p *Publisher) PublishUserProvisioned(ctx context.Context, evt models.UserProvisionedEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(
		ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         evt.Type,
			MessageId:    evt.UID,
			Body:         body,
			Headers:      amqp.Table{"companyId": evt.CompanyID},
		},
	)
}

func (p *Publisher) Close() error {
	var errCh, errConn error
	if p.ch != nil {
		errCh = p.ch.Close()
	}
	if p.conn != nil {
		errConn = p.conn.Close()
	}
	return errors.Join(errCh, errConn)
}

// Handler processes one decoded event. A returned error requeues the message once.
type Handler func(ctx context.Context, evt models.UserProvisionedEvent) error

// Consumer reads provisioning events from the queue with manual acks.
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
}

// NewConsumer dials RabbitMQ, declares the queue and limits in-flight deliveries to prefetch.
func NewConsumer(uri, queue string, prefetch int, logger *zap.Logger) (*Consumer, error) {
	conn, ch, err := dial(uri, queue)
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, logger: logger}, nil
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming '%s': %w", c.queue, err)
	}
	c.logger.Info("Consuming provisioning events", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.dispatch(ctx, d, handle)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery, handle Handler) {
	evt, err := Decode(d.Body)
	if err != nil {
		c.logger.Error("Dropping undecodable message", zap.String("messageId", d.MessageId), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if err := handle(ctx, evt); err != nil {
		requeue := !d.Redelivered
		c.logger.Warn("Event handler failed",
			zap.String("uid", evt.UID),
			zap.Bool("requeue", requeue),
			zap.Error(err))
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
}

func (c *Consumer) Close() error {
	var errCh, errConn error
	if c.ch != nil {
		errCh = c.ch.Close()
	}
	if c.conn != nil {
		errConn = c.conn.Close()
	}
	return errors.Join(errCh, errConn)
}

// Decode parses a message body and rejects events of an unexpected type.
func Decode(body []byte) (models.UserProvisionedEvent, error) {
	var evt models.UserProvisionedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return evt, fmt.Errorf("invalid event payload: %w", err)
	}
	if evt.Type != models.EventUserProvisioned {
		return evt, fmt.Errorf("unexpected event type %q", evt.Type)
	}
	if evt.Email == "" {
		return evt, errors.New("event has no email")
	}
	return evt, nil
}
