package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	serrors "github.com/Aman-CERP/dictionary/internal/errors"
)

// KeyHeader is the message header carrying the event type.
const KeyHeader = "key"

// AMQPClient consumes one durable queue per topic, bound to a topic exchange
// with the topic name as routing key. Deliveries are acknowledged manually.
type AMQPClient struct {
	cfg Config

	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	topics     []string
	deliveries chan delivery
	done       chan struct{}
	closed     bool
}

// delivery pairs a message with the queue it came from.
type delivery struct {
	queue string
	msg   amqp.Delivery
}

var _ Client = (*AMQPClient)(nil)

// NewAMQPClient creates a client; no connection is made until Subscribe.
func NewAMQPClient(cfg Config) *AMQPClient {
	return &AMQPClient{cfg: cfg}
}

// Subscribe implements Client.
func (a *AMQPClient) Subscribe(ctx context.Context, topics []string) error {
	if len(topics) == 0 {
		return serrors.ConfigError("no topics to subscribe to", nil)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	a.topics = append([]string(nil), topics...)
	return a.connectLocked()
}

// connectLocked dials the broker and starts one consumer per topic.
// Caller holds mu.
func (a *AMQPClient) connectLocked() error {
	a.closeConnLocked()

	conn, err := amqp.Dial(a.cfg.URL)
	if err != nil {
		return serrors.New(serrors.ErrCodeBrokerUnavailable, "amqp dial failed", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return serrors.New(serrors.ErrCodeBrokerUnavailable, "amqp channel failed", err)
	}

	prefetch := a.cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = conn.Close()
		return serrors.New(serrors.ErrCodeBrokerUnavailable, "amqp qos failed", err)
	}

	exchange := firstNonEmpty(a.cfg.Exchange, "dictionary")
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return serrors.New(serrors.ErrCodeBrokerUnavailable, "amqp exchange declare failed", err)
	}

	out := make(chan delivery)
	done := make(chan struct{})
	abort := func() {
		close(done)
		_ = conn.Close()
	}
	var wg sync.WaitGroup
	for _, topic := range a.topics {
		if _, err := ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
			abort()
			return serrors.New(serrors.ErrCodeBrokerUnavailable, "amqp queue declare failed", err).
				WithDetail("queue", topic)
		}
		if err := ch.QueueBind(topic, topic, exchange, false, nil); err != nil {
			abort()
			return serrors.New(serrors.ErrCodeBrokerUnavailable, "amqp queue bind failed", err).
				WithDetail("queue", topic)
		}
		msgs, err := ch.Consume(topic, "", false, false, false, false, nil)
		if err != nil {
			abort()
			return serrors.New(serrors.ErrCodeBrokerUnavailable, "amqp consume failed", err).
				WithDetail("queue", topic)
		}

		wg.Add(1)
		go func(queue string, msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range msgs {
				select {
				case out <- delivery{queue: queue, msg: d}:
				case <-done:
					return
				}
			}
		}(topic, msgs)
	}

	// out closes once the channel closes every consumer
	go func() {
		wg.Wait()
		close(out)
	}()

	a.conn, a.ch, a.deliveries, a.done = conn, ch, out, done
	slog.Info("amqp_subscribed",
		slog.String("exchange", exchange),
		slog.Any("queues", a.topics),
		slog.Int("prefetch", prefetch))
	return nil
}

// Poll implements Client. A closed connection is redialed on the next call.
func (a *AMQPClient) Poll(ctx context.Context) (*Record, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, ErrClosed
	}
	if a.topics == nil {
		a.mu.Unlock()
		return nil, ErrNotSubscribed
	}
	if a.deliveries == nil {
		if err := a.connectLocked(); err != nil {
			a.mu.Unlock()
			return nil, err
		}
	}
	deliveries := a.deliveries
	a.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			a.mu.Lock()
			if a.deliveries == deliveries {
				a.deliveries = nil
			}
			a.mu.Unlock()
			return nil, serrors.New(serrors.ErrCodeBrokerUnavailable, "amqp connection closed", nil)
		}
		return recordFromDelivery(d.queue, d.msg), nil
	}
}

// recordFromDelivery converts a delivery. The event type comes from the key
// header, falling back to the message type.
func recordFromDelivery(queue string, d amqp.Delivery) *Record {
	var key []byte
	switch v := d.Headers[KeyHeader].(type) {
	case string:
		key = []byte(v)
	case []byte:
		key = v
	}
	if len(key) == 0 && d.Type != "" {
		key = []byte(d.Type)
	}

	return &Record{
		Topic:  queue,
		Key:    key,
		Value:  d.Body,
		Offset: int64(d.DeliveryTag),
		Time:   d.Timestamp,
		handle: d,
	}
}

// Commit implements Client by acknowledging the delivery.
func (a *AMQPClient) Commit(ctx context.Context, rec *Record) error {
	d, ok := rec.handle.(amqp.Delivery)
	if !ok {
		return fmt.Errorf("record %s was not read by this client", rec)
	}
	if err := d.Ack(false); err != nil {
		return serrors.New(serrors.ErrCodeCommitFailed, "amqp ack failed", err).
			WithDetail("record", rec.String())
	}
	return nil
}

// Nack implements Client. Without requeue the broker drops the message or
// dead-letters it if the queue has a DLX.
func (a *AMQPClient) Nack(ctx context.Context, rec *Record, requeue bool) error {
	d, ok := rec.handle.(amqp.Delivery)
	if !ok {
		return fmt.Errorf("record %s was not read by this client", rec)
	}
	if err := d.Nack(false, requeue); err != nil {
		return serrors.New(serrors.ErrCodeCommitFailed, "amqp nack failed", err).
			WithDetail("record", rec.String())
	}
	return nil
}

// Close implements Client.
func (a *AMQPClient) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.closeConnLocked()
	return nil
}

// closeConnLocked tears down the current connection. Caller holds mu.
func (a *AMQPClient) closeConnLocked() {
	if a.done != nil {
		close(a.done)
		a.done = nil
	}
	if a.ch != nil {
		_ = a.ch.Close()
		a.ch = nil
	}
	if a.conn != nil {
		_ = a.conn.Close()
		a.conn = nil
	}
	a.deliveries = nil
}

// firstNonEmpty returns a if set, otherwise b.
func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
