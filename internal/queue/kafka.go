package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	serrors "github.com/Aman-CERP/dictionary/internal/errors"
)

// messageReader is the subset of *kafka.Reader the client uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaClient reads a consumer group over every subscribed topic.
// Commits are batched by the reader every CommitInterval, so Commit does not
// wait for the broker.
type KafkaClient struct {
	cfg       Config
	newReader func(kafka.ReaderConfig) messageReader

	mu     sync.Mutex
	reader messageReader
	closed bool

	// pending holds a requeued record; Poll returns it before fetching.
	pending *Record
}

var _ Client = (*KafkaClient)(nil)

// NewKafkaClient creates a client; no connection is made until Subscribe.
func NewKafkaClient(cfg Config) *KafkaClient {
	return &KafkaClient{
		cfg: cfg,
		newReader: func(rc kafka.ReaderConfig) messageReader {
			return kafka.NewReader(rc)
		},
	}
}

// readerConfig builds the consumer group configuration for topics.
func (k *KafkaClient) readerConfig(topics []string) kafka.ReaderConfig {
	interval := k.cfg.CommitInterval
	if interval <= 0 {
		interval = time.Second
	}
	group := k.cfg.Group
	if group == "" {
		group = "default"
	}

	return kafka.ReaderConfig{
		Brokers:        k.cfg.Brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: interval,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			slog.Debug("kafka_reader", slog.String("message", fmt.Sprintf(msg, args...)))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			slog.Warn("kafka_reader_error", slog.String("message", fmt.Sprintf(msg, args...)))
		}),
	}
}

// Subscribe implements Client.
func (k *KafkaClient) Subscribe(ctx context.Context, topics []string) error {
	if len(topics) == 0 {
		return serrors.ConfigError("no topics to subscribe to", nil)
	}
	if len(k.cfg.Brokers) == 0 {
		return serrors.ConfigError("no kafka brokers configured", nil)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return ErrClosed
	}
	if k.reader != nil {
		_ = k.reader.Close()
	}

	k.reader = k.newReader(k.readerConfig(topics))
	k.pending = nil

	slog.Info("kafka_subscribed",
		slog.Any("brokers", k.cfg.Brokers),
		slog.String("group", k.cfg.Group),
		slog.Any("topics", topics))
	return nil
}

// Poll implements Client.
func (k *KafkaClient) Poll(ctx context.Context) (*Record, error) {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil, ErrClosed
	}
	if k.reader == nil {
		k.mu.Unlock()
		return nil, ErrNotSubscribed
	}
	if rec := k.pending; rec != nil {
		k.pending = nil
		k.mu.Unlock()
		return rec, nil
	}
	reader := k.reader
	k.mu.Unlock()

	msg, err := reader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, io.EOF) {
			return nil, ErrClosed
		}
		return nil, serrors.New(serrors.ErrCodeBrokerUnavailable, "kafka fetch failed", err)
	}

	return &Record{
		Topic:     msg.Topic,
		Key:       msg.Key,
		Value:     msg.Value,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Time:      msg.Time,
		handle:    msg,
	}, nil
}

// Commit implements Client.
func (k *KafkaClient) Commit(ctx context.Context, rec *Record) error {
	msg, ok := rec.handle.(kafka.Message)
	if !ok {
		return fmt.Errorf("record %s was not read by this client", rec)
	}

	k.mu.Lock()
	reader := k.reader
	k.mu.Unlock()
	if reader == nil {
		return ErrNotSubscribed
	}

	if err := reader.CommitMessages(ctx, msg); err != nil {
		return serrors.New(serrors.ErrCodeCommitFailed, "kafka commit failed", err).
			WithDetail("record", rec.String())
	}
	return nil
}

// Nack implements Client. Kafka has no per-message negative ack: a requeued
// record is held locally for the next Poll, and a skipped one is simply not
// committed.
func (k *KafkaClient) Nack(ctx context.Context, rec *Record, requeue bool) error {
	if !requeue {
		return nil
	}
	k.mu.Lock()
	k.pending = rec
	k.mu.Unlock()
	return nil
}

// Close implements Client. It flushes pending commits.
func (k *KafkaClient) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	if k.reader != nil {
		return k.reader.Close()
	}
	return nil
}
