package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"findash/internal/log"
)

const (
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// ErrPermanent marks a handler failure that must not be retried; the
// delivery is rejected without requeue.
var ErrPermanent = errors.New("permanent failure")

// ErrChannelUnavailable is returned when a reconnect succeeds but leaves no
// usable channel behind.
var ErrChannelUnavailable = errors.New("amqp channel unavailable")

// Handler processes one scan request.
type Handler func(ctx context.Context, msg *ScanRequestMessage) error

type Client struct {
	url          string
	exchangeName string
	queueName    string

	logger *log.Logger
	// reconnect defaults to connect; swapped in tests.
	reconnect func() error

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       log.Default().WithComponent(log.ComponentAMQP),
	}

	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = channel

	if err := c.setup(); err != nil {
		c.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Direct exchange: the routing key is the queue name.
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (c *Client) log() *log.Logger {
	if c.logger == nil {
		return log.Default().WithComponent(log.ComponentAMQP)
	}
	return c.logger
}

func (c *Client) currentChannel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil || c.channel.IsClosed() {
		return nil
	}
	return c.channel
}

// PublishScanRequest publishes a persistent scan request. A dropped
// connection is re-established once before giving up.
func (c *Client) PublishScanRequest(ctx context.Context, msg *ScanRequestMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.publishChannel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.RequestID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.log().InfoContext(ctx, "Published scan request",
		log.FieldOperation, log.OpPublish,
		log.FieldRequestID, msg.RequestID,
		log.FieldFilter, msg.Filter,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// publishChannel returns the open channel, reconnecting once if it is gone.
func (c *Client) publishChannel() (*amqp091.Channel, error) {
	if ch := c.currentChannel(); ch != nil {
		return ch, nil
	}
	reconnect := c.reconnect
	if reconnect == nil {
		reconnect = c.connect
	}
	if err := reconnect(); err != nil {
		return nil, fmt.Errorf("reconnect before publish: %w", err)
	}
	ch := c.currentChannel()
	if ch == nil {
		return nil, fmt.Errorf("publish: %w", ErrChannelUnavailable)
	}
	return ch, nil
}

// ConsumeScanRequests delivers scan requests to handler until ctx is done.
// Deliveries are acknowledged manually: success acks, ErrPermanent and
// undecodable bodies are rejected, other failures are requeued. When the
// broker connection drops the client reconnects with capped exponential
// backoff.
func (c *Client) ConsumeScanRequests(ctx context.Context, handler Handler) error {
	logger := c.log()
	attempt := 0
	for {
		err := c.consume(ctx, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			logger.InfoContext(ctx, "Stopping message consumption",
				log.FieldOperation, log.OpConsume, "reason", ctx.Err())
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		for {
			wait := exponentialBackoff(attempt)
			logger.WarnContext(ctx, "AMQP connection lost, reconnecting",
				log.FieldError, err, "attempt", attempt+1, "backoff", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			attempt++
			if err = c.connect(); err == nil {
				logger.InfoContext(ctx, "AMQP connection re-established", "attempts", attempt)
				break
			}
		}
	}
}

func (c *Client) consume(ctx context.Context, handler Handler, started func()) error {
	ch := c.currentChannel()
	if ch == nil {
		return fmt.Errorf("consume: connection closed")
	}

	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	started()

	c.log().InfoContext(ctx, "Started consuming scan requests",
		log.FieldOperation, log.OpConsume, "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			process(ctx, c.log(), delivery.Body, delivery, handler)
		}
	}
}

// acknowledger is the subset of amqp091.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func process(ctx context.Context, logger *log.Logger, body []byte, ack acknowledger, handler Handler) {
	msg, err := ScanRequestMessageFromJSON(body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to unmarshal message",
			log.NewFields().WithOperation(log.OpConsume).WithError(err).ToSlice()...)
		ack.Nack(false, false)
		return
	}

	logger.InfoContext(ctx, "Processing scan request",
		log.FieldRequestID, msg.RequestID, log.FieldFilter, msg.Filter)

	if err := handler(ctx, msg); err != nil {
		requeue := !errors.Is(err, ErrPermanent)
		fields := log.NewFields().WithOperation(log.OpConsume).WithError(err)
		fields[log.FieldRequestID] = msg.RequestID
		fields["requeue"] = requeue
		logger.ErrorContext(ctx, "Failed to handle scan request", fields.ToSlice()...)
		ack.Nack(false, requeue)
		return
	}

	ack.Ack(false)
	logger.InfoContext(ctx, "Processed scan request", log.FieldRequestID, msg.RequestID)
}

// exponentialBackoff returns 1s doubled per attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel closed"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}
