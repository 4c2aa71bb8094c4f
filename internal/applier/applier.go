// Package applier applies decoded dictionary events to the search indices.
package applier

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/dictionary/internal/document"
	serrors "github.com/Aman-CERP/dictionary/internal/errors"
	"github.com/Aman-CERP/dictionary/internal/store"
	"github.com/Aman-CERP/dictionary/internal/tenant"
)

// Action is what an event did to the index.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	ActionIgnored Action = "ignored"
)

// Observer receives apply outcomes. It may be nil.
type Observer interface {
	ObserveApply(kind string, action Action, d time.Duration, err error)
}

// Option configures an Applier.
type Option func(*Applier)

// WithBreaker routes engine calls through cb.
func WithBreaker(cb *serrors.CircuitBreaker) Option {
	return func(a *Applier) { a.breaker = cb }
}

// WithObserver reports every apply to o.
func WithObserver(o Observer) Option {
	return func(a *Applier) { a.observer = o }
}

// Applier maps event types to index mutations.
//
//	new    -> create
//	update -> delete, then create
//	delete -> delete
//	other  -> nothing, reported as success
//
// Update is not atomic: when the create fails the document stays absent
// until the event is redelivered.
type Applier struct {
	gateway  store.Gateway
	breaker  *serrors.CircuitBreaker
	observer Observer
}

// New creates an Applier writing to gateway.
// Without WithBreaker it uses a breaker with default thresholds.
func New(gateway store.Gateway, opts ...Option) *Applier {
	a := &Applier{gateway: gateway}
	for _, opt := range opts {
		opt(a)
	}
	if a.breaker == nil {
		a.breaker = serrors.NewCircuitBreaker("search-engine")
	}
	return a
}

// IndexFor returns the index a document is written to.
func IndexFor(doc document.Entity) string {
	return tenant.Resolve(doc.Kind().IndexBase(), doc.Scope())
}

// Apply applies one envelope. A nil error means the record may be committed.
// Envelopes without a document are ignored. Errors that are not retryable
// mean the record can never be applied.
func (a *Applier) Apply(ctx context.Context, env *document.Envelope) (action Action, err error) {
	if !env.HasDocument() {
		return ActionIgnored, nil
	}

	doc := env.Document
	index := IndexFor(doc)
	start := time.Now()
	defer func() {
		if a.observer != nil {
			a.observer.ObserveApply(string(doc.Kind()), action, time.Since(start), err)
		}
	}()

	switch env.EventType {
	case document.EventNew, document.EventUpdate, document.EventDelete:
		if !store.ValidIndexName(index) {
			action = ActionIgnored
			err = serrors.ValidationError("document scope does not form a valid index name", store.ErrInvalidIndexName).
				WithDetail("index", index).
				WithDetail("id", doc.DocumentID())
			return action, err
		}
	}

	switch env.EventType {
	case document.EventNew:
		action = ActionCreated
		err = a.create(ctx, index, doc)

	case document.EventUpdate:
		action = ActionUpdated
		if err = a.delete(ctx, index, doc); err == nil {
			err = a.create(ctx, index, doc)
		}

	case document.EventDelete:
		action = ActionDeleted
		err = a.delete(ctx, index, doc)

	default:
		slog.Debug("sync_event_ignored",
			slog.String("event_type", env.EventType),
			slog.String("kind", string(doc.Kind())),
			slog.String("id", doc.DocumentID()))
		return ActionIgnored, nil
	}

	if err != nil {
		return action, err
	}

	slog.Info("sync_event_applied",
		slog.String("action", string(action)),
		slog.String("index", index),
		slog.String("kind", string(doc.Kind())),
		slog.String("id", doc.DocumentID()),
		slog.Duration("duration", time.Since(start)))
	return action, nil
}

func (a *Applier) create(ctx context.Context, index string, doc document.Entity) error {
	body, err := doc.Body()
	if err != nil {
		return serrors.New(serrors.ErrCodeInternal, "failed to serialize document", err).
			WithDetail("id", doc.DocumentID())
	}

	entry := &store.Document{
		ID:      doc.DocumentID(),
		Content: doc.SearchText(),
		Source:  body,
	}
	err = a.breaker.Execute(func() error {
		return a.gateway.Create(ctx, index, entry)
	})
	if err != nil {
		return serrors.EngineError("create document failed", err).
			WithDetail("index", index).
			WithDetail("id", entry.ID)
	}
	return nil
}

func (a *Applier) delete(ctx context.Context, index string, doc document.Entity) error {
	err := a.breaker.Execute(func() error {
		return a.gateway.Delete(ctx, index, doc.DocumentID())
	})
	if err != nil {
		return serrors.EngineError("delete document failed", err).
			WithDetail("index", index).
			WithDetail("id", doc.DocumentID())
	}
	return nil
}
