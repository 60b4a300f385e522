package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalog/internal/models"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// OrderPlacedKey is the routing key the orders queue is bound with.
const OrderPlacedKey = "order.placed"

// ErrDiscard marks a message that can never be processed. It is rejected
// without requeue instead of being redelivered.
var ErrDiscard = errors.New("rabbitmq: discard message")

// Handler processes one message body.
type Handler func(ctx context.Context, body []byte) error

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	logger  *zap.Logger
	mu      sync.Mutex // guards channel publishes
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
	// Exchange is the topic exchange product events are published to.
	Exchange string
	// OrdersExchange and OrdersQueue are where order.placed messages arrive.
	// An empty OrdersQueue disables consuming.
	OrdersExchange string
	OrdersQueue    string
	Prefetch       int
}

// NewClient connects to RabbitMQ and declares the exchanges and queue in cfg.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 10
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &Client{conn: conn, channel: ch, cfg: cfg, logger: logger}
	if err := c.declare(); err != nil {
		c.Close()
		return nil, err
	}

	logger.Info("rabbitmq client connected",
		zap.String("exchange", cfg.Exchange),
		zap.String("orders_queue", cfg.OrdersQueue))
	return c, nil
}

func (c *Client) declare() error {
	if c.cfg.Exchange != "" {
		if err := c.channel.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", c.cfg.Exchange, err)
		}
	}
	if c.cfg.OrdersQueue == "" {
		return nil
	}

	if _, err := c.channel.QueueDeclare(
		c.cfg.OrdersQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", c.cfg.OrdersQueue, err)
	}
	if c.cfg.OrdersExchange == "" {
		return nil
	}
	if err := c.channel.ExchangeDeclare(c.cfg.OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", c.cfg.OrdersExchange, err)
	}
	if err := c.channel.QueueBind(c.cfg.OrdersQueue, OrderPlacedKey, c.cfg.OrdersExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", c.cfg.OrdersQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishProductEvent publishes event to the events exchange, routed by its type.
func (c *Client) PublishProductEvent(ctx context.Context, event models.ProductEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal product event: %w", err)
	}
	return c.publish(ctx, event.Type, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (c *Client) publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.channel.Publish(c.cfg.Exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	c.logger.Debug("published message", zap.String("routing_key", routingKey), zap.String("message_id", msg.MessageId))
	return nil
}

// ConsumeOrders delivers messages from the orders queue to handler until ctx
// is cancelled or the channel closes. Messages are acked on success, rejected
// when handler returns ErrDiscard and requeued on any other error.
func (c *Client) ConsumeOrders(ctx context.Context, handler Handler) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}
	if c.cfg.OrdersQueue == "" {
		return errors.New("no orders queue configured")
	}
	if err := c.channel.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.cfg.OrdersQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("waiting for order events", zap.String("queue", c.cfg.OrdersQueue))
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("order consumer channel closed")
					return
				}
				c.handle(ctx, msg, handler)
			}
		}
	}()
	return nil
}

func (c *Client) handle(ctx context.Context, msg amqp.Delivery, handler Handler) {
	start := time.Now()
	err := handler(ctx, msg.Body)
	fields := []zap.Field{
		zap.Uint64("delivery_tag", msg.DeliveryTag),
		zap.String("message_id", msg.MessageId),
		zap.Duration("took", time.Since(start)),
	}

	var settleErr error
	switch {
	case err == nil:
		settleErr = msg.Ack(false)
	case errors.Is(err, ErrDiscard):
		c.logger.Error("discarding message", append(fields, zap.Error(err))...)
		settleErr = msg.Nack(false, false)
	default:
		c.logger.Warn("requeueing message", append(fields, zap.Error(err))...)
		settleErr = msg.Nack(false, true)
	}
	if settleErr != nil {
		c.logger.Error("failed to settle message", append(fields, zap.Error(settleErr))...)
	}
}
