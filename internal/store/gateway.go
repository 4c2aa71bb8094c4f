// Package store provides the search gateway: named document indices backed by
// an embedded full-text engine.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
)

var (
	// ErrIndexNotFound is returned when a read targets an index that does not exist.
	ErrIndexNotFound = errors.New("index not found")

	// ErrDocumentNotFound is returned by Get when the id is not in the index.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidIndexName is returned when a name cannot be used as an index.
	ErrInvalidIndexName = errors.New("invalid index name")

	// ErrClosed is returned by any call after Close.
	ErrClosed = errors.New("gateway is closed")
)

// Document is one stored entry of an index.
type Document struct {
	// ID is unique within its index.
	ID string

	// Content is the free text searched by Search.
	Content string

	// Source is the JSON body returned by Get and Search.
	Source json.RawMessage
}

// SearchRequest describes a free-text search.
type SearchRequest struct {
	// Query is matched with AND semantics across tokens; the last token
	// matches as a prefix. Empty matches every document.
	Query string

	// From is the number of hits to skip.
	From int

	// Size is the maximum number of hits to return.
	Size int
}

// SearchResult holds one page of hits.
type SearchResult struct {
	// Total counts every matching document, not only this page.
	Total int

	// Hits are ordered by relevance, or by numeric id for an empty query.
	// Ids that are not integers sort first, by text.
	Hits []*Document
}

// Gateway manages named indices.
// Implementations are safe for concurrent use.
type Gateway interface {
	// Create indexes doc, replacing any document with the same id.
	// The index is created on first write.
	Create(ctx context.Context, index string, doc *Document) error

	// Delete removes a document. A missing index or document is not an error.
	Delete(ctx context.Context, index, id string) error

	// Get returns one document.
	Get(ctx context.Context, index, id string) (*Document, error)

	// Search runs a free-text search on one index.
	Search(ctx context.Context, index string, req SearchRequest) (*SearchResult, error)

	// Exists reports whether the index has been created.
	Exists(ctx context.Context, index string) (bool, error)

	// Indices lists every index name in sorted order.
	Indices(ctx context.Context) ([]string, error)

	// Close releases every open index.
	Close() error
}

// indexNameRegex restricts index names to what resolver output can contain.
var indexNameRegex = regexp.MustCompile(`^[\p{Ll}\p{N}][\p{Ll}\p{N}_.\-]*$`)

// ValidIndexName reports whether name can be stored on disk safely.
func ValidIndexName(name string) bool {
	return len(name) <= 255 && indexNameRegex.MatchString(name) && !containsDotDot(name)
}

func containsDotDot(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '.' && s[i+1] == '.' {
			return true
		}
	}
	return false
}

// Config selects and tunes a gateway backend.
type Config struct {
	// Backend is "bleve" (default) or "sqlite".
	Backend string

	// DataDir holds index files. Empty keeps everything in memory.
	DataDir string

	// CacheSize bounds the number of open Bleve indices.
	CacheSize int

	// StopWords are dropped from indexed text and queries.
	StopWords []string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Backend:   string(BackendBleve),
		DataDir:   "./data",
		CacheSize: 64,
		StopWords: DefaultStopWords,
	}
}
