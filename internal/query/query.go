// Package query answers read requests for dictionary entities, resolving the
// most specific tenant index that can serve each request.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Aman-CERP/dictionary/internal/document"
	serrors "github.com/Aman-CERP/dictionary/internal/errors"
	"github.com/Aman-CERP/dictionary/internal/store"
	"github.com/Aman-CERP/dictionary/internal/tenant"
)

// Defaults for pagination when the caller sets none.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Pagination selects one page of a list. Pages are 1-based.
// A zero Number means the first page; a zero Size means the default size.
type Pagination struct {
	Number int
	Size   int
}

// Observer receives query timings. It may be nil.
type Observer interface {
	ObserveQuery(kind, op string, d time.Duration, err error)
}

// Options configures a Service.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	Observer        Observer
}

// Service answers get-by-id and list queries for every entity kind.
type Service struct {
	gateway  store.Gateway
	opts     Options
	observer Observer
}

// NewService creates a Service reading from gateway.
func NewService(gateway store.Gateway, opts Options) *Service {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = MaxPageSize
	}
	if opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = opts.MaxPageSize
	}
	return &Service{gateway: gateway, opts: opts, observer: opts.Observer}
}

// GetByID returns the stored body of one entity.
// found is false when no candidate index holds the id.
func (s *Service) GetByID(ctx context.Context, kind document.Kind, id string, tc tenant.Context) (body json.RawMessage, found bool, err error) {
	start := time.Now()
	defer func() { s.observe(kind, "get", start, err) }()

	for _, index := range tenant.Candidates(kind.IndexBase(), tc) {
		doc, err := s.gateway.Get(ctx, index, id)
		switch {
		case err == nil:
			slog.Debug("query_get_hit",
				slog.String("kind", string(kind)),
				slog.String("index", index),
				slog.String("id", id))
			return doc.Source, true, nil
		case errors.Is(err, store.ErrIndexNotFound), errors.Is(err, store.ErrDocumentNotFound):
			continue
		default:
			return nil, false, serrors.QueryError(err).
				WithDetail("index", index).
				WithDetail("id", id)
		}
	}
	return nil, false, nil
}

// List searches the most specific existing index for kind.
// An empty searchValue lists every document. A nil page uses the defaults.
func (s *Service) List(ctx context.Context, kind document.Kind, tc tenant.Context, searchValue string, page *Pagination) (items []json.RawMessage, err error) {
	start := time.Now()
	defer func() { s.observe(kind, "list", start, err) }()

	index, ok, err := s.resolveExisting(ctx, kind, tc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []json.RawMessage{}, nil
	}

	from, size := s.window(page)
	res, err := s.gateway.Search(ctx, index, store.SearchRequest{
		Query: searchValue,
		From:  from,
		Size:  size,
	})
	if errors.Is(err, store.ErrIndexNotFound) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, serrors.QueryError(err).WithDetail("index", index)
	}

	items = make([]json.RawMessage, 0, len(res.Hits))
	for _, hit := range res.Hits {
		items = append(items, hit.Source)
	}

	slog.Debug("query_list",
		slog.String("kind", string(kind)),
		slog.String("index", index),
		slog.Int("hits", len(items)),
		slog.Int("total", res.Total))
	return items, nil
}

// ResolveIndex returns the index a List call for kind and tc would read.
// ok is false when no candidate exists yet.
func (s *Service) ResolveIndex(ctx context.Context, kind document.Kind, tc tenant.Context) (string, bool, error) {
	return s.resolveExisting(ctx, kind, tc)
}

func (s *Service) resolveExisting(ctx context.Context, kind document.Kind, tc tenant.Context) (string, bool, error) {
	for _, index := range tenant.Candidates(kind.IndexBase(), tc) {
		ok, err := s.gateway.Exists(ctx, index)
		if err != nil {
			return "", false, serrors.QueryError(err).WithDetail("index", index)
		}
		if ok {
			return index, true, nil
		}
	}
	return "", false, nil
}

// window converts a page into a hit offset and count.
func (s *Service) window(page *Pagination) (from, size int) {
	size = s.opts.DefaultPageSize
	number := 1
	if page != nil {
		if page.Size > 0 {
			size = page.Size
		}
		if page.Number > 0 {
			number = page.Number
		}
	}
	if size > s.opts.MaxPageSize {
		size = s.opts.MaxPageSize
	}
	return (number - 1) * size, size
}

func (s *Service) observe(kind document.Kind, op string, start time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveQuery(string(kind), op, time.Since(start), err)
	}
}
