// Package consumer runs the sync loop that reads dictionary events from the
// queue and applies them to the search indices.
package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Aman-CERP/dictionary/internal/applier"
	"github.com/Aman-CERP/dictionary/internal/document"
	serrors "github.com/Aman-CERP/dictionary/internal/errors"
	"github.com/Aman-CERP/dictionary/internal/queue"
)

// Outcome is what happened to one record.
type Outcome string

const (
	// OutcomeCommitted means the event was applied and the record committed.
	OutcomeCommitted Outcome = "committed"
	// OutcomeSkipped means there was nothing to apply; the record is not committed.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeUndecodable means the payload could not be decoded.
	OutcomeUndecodable Outcome = "undecodable"
	// OutcomeUnknownTopic means no decoder exists for the topic.
	OutcomeUnknownTopic Outcome = "unknown_topic"
	// OutcomeRequeued means the apply failed and the record will be redelivered.
	OutcomeRequeued Outcome = "requeued"
	// OutcomeRejected means the apply failed on input that can never succeed;
	// the record is dropped without a commit.
	OutcomeRejected Outcome = "rejected"
)

// Sink applies a decoded envelope. *applier.Applier satisfies it.
type Sink interface {
	Apply(ctx context.Context, env *document.Envelope) (applier.Action, error)
}

// Observer receives record outcomes. It may be nil.
type Observer interface {
	ObserveRecord(topic string, outcome Outcome)
	ObservePollError(err error)
}

// Options configures a Consumer.
type Options struct {
	// Topics to subscribe to. Empty means every entity kind.
	Topics []string

	// Retry controls the wait after a failed apply or poll.
	Retry serrors.RetryConfig

	Observer Observer
}

// Consumer processes one record at a time, in arrival order.
type Consumer struct {
	client   queue.Client
	sink     Sink
	topics   []string
	backoff  *serrors.Backoff
	observer Observer
}

// New creates a Consumer reading from client and applying to sink.
func New(client queue.Client, sink Sink, opts Options) *Consumer {
	topics := opts.Topics
	if len(topics) == 0 {
		for _, k := range document.Kinds {
			topics = append(topics, string(k))
		}
	}
	retry := opts.Retry
	if retry.InitialDelay <= 0 {
		retry = serrors.RedeliveryConfig()
	}

	return &Consumer{
		client:   client,
		sink:     sink,
		topics:   topics,
		backoff:  serrors.NewBackoff(retry),
		observer: opts.Observer,
	}
}

// Topics returns the topics the consumer subscribes to.
func (c *Consumer) Topics() []string {
	return append([]string(nil), c.topics...)
}

// Run subscribes and processes records until ctx is cancelled.
// It returns nil on cancellation and an error only when the subscription
// fails or the client is closed underneath it.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.client.Subscribe(ctx, c.topics); err != nil {
		return err
	}
	slog.Info("consumer_started", slog.Any("topics", c.topics))

	for {
		rec, err := c.client.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("consumer_stopped")
				return nil
			}
			if errors.Is(err, queue.ErrClosed) {
				return err
			}

			c.observePollError(err)
			wait := c.backoff.Next()
			attrs := append([]any{slog.Duration("retry_in", wait)}, serrors.LogAttrs(err)...)
			slog.Warn("consumer_poll_failed", attrs...)
			if serrors.Sleep(ctx, wait) != nil {
				slog.Info("consumer_stopped")
				return nil
			}
			continue
		}

		outcome := c.Handle(ctx, rec)
		if outcome != OutcomeRequeued {
			continue
		}

		wait := c.backoff.Next()
		slog.Debug("consumer_backoff",
			slog.String("record", rec.String()),
			slog.Duration("wait", wait))
		if serrors.Sleep(ctx, wait) != nil {
			slog.Info("consumer_stopped")
			return nil
		}
	}
}

// Handle processes a single record: decode, apply, then commit on success.
// Failures are logged and reflected in the outcome; Handle never panics on
// bad input.
func (c *Consumer) Handle(ctx context.Context, rec *queue.Record) Outcome {
	outcome := c.handle(ctx, rec)
	if c.observer != nil {
		c.observer.ObserveRecord(rec.Topic, outcome)
	}
	return outcome
}

func (c *Consumer) handle(ctx context.Context, rec *queue.Record) Outcome {
	if _, ok := document.LookupDecoder(rec.Topic); !ok {
		c.nack(ctx, rec, false)
		return OutcomeUnknownTopic
	}

	env, err := document.Decode(rec.Topic, rec.Key, rec.Value)
	if err != nil {
		attrs := append([]any{
			slog.String("record", rec.String()),
			slog.String("event_type", env.EventType),
		}, serrors.LogAttrs(err)...)
		slog.Warn("consumer_decode_failed", attrs...)
		c.nack(ctx, rec, false)
		return OutcomeUndecodable
	}

	if !env.HasDocument() {
		slog.Debug("consumer_empty_envelope",
			slog.String("record", rec.String()),
			slog.String("event_type", env.EventType))
		c.nack(ctx, rec, false)
		return OutcomeSkipped
	}

	if _, err := c.sink.Apply(ctx, env); err != nil {
		attrs := append([]any{
			slog.String("record", rec.String()),
			slog.String("event_type", env.EventType),
			slog.String("id", env.Document.DocumentID()),
		}, serrors.LogAttrs(err)...)
		if serrors.GetCode(err) != "" && !serrors.IsRetryable(err) {
			slog.Warn("consumer_record_rejected", attrs...)
			c.nack(ctx, rec, false)
			return OutcomeRejected
		}
		slog.Error("consumer_apply_failed", attrs...)
		c.nack(ctx, rec, true)
		return OutcomeRequeued
	}

	c.backoff.Reset()
	if err := c.client.Commit(ctx, rec); err != nil {
		attrs := append([]any{slog.String("record", rec.String())}, serrors.LogAttrs(err)...)
		slog.Warn("consumer_commit_failed", attrs...)
	}
	return OutcomeCommitted
}

func (c *Consumer) nack(ctx context.Context, rec *queue.Record, requeue bool) {
	if err := c.client.Nack(ctx, rec, requeue); err != nil {
		attrs := append([]any{
			slog.String("record", rec.String()),
			slog.Bool("requeue", requeue),
		}, serrors.LogAttrs(err)...)
		slog.Warn("consumer_nack_failed", attrs...)
	}
}

func (c *Consumer) observePollError(err error) {
	if c.observer != nil {
		c.observer.ObservePollError(err)
	}
}
