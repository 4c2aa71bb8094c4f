package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	lru "github.com/hashicorp/golang-lru/v2"

	serrors "github.com/Aman-CERP/dictionary/internal/errors"
)

const (
	// DictionaryTokenizerName is the registered identifier-aware tokenizer.
	DictionaryTokenizerName = "dictionary_tokenizer"

	// DictionaryAnalyzerName is the analyzer applied to document content.
	DictionaryAnalyzerName = "dictionary_analyzer"

	bleveExt       = ".bleve"
	contentField   = "content"
	sourceField    = "source"
	seqField       = "seq"
	memoryCacheCap = 1 << 20
)

func init() {
	_ = registry.RegisterTokenizer(DictionaryTokenizerName, tokenizerConstructor)
}

// bleveDocument is the shape indexed for each entry.
// Seq is the numeric id used for ordering; ids that are not integers get 0.
type bleveDocument struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Seq     float64 `json:"seq"`
}

// BleveGateway keeps one Bleve index per name under the data directory.
// Open handles live in an LRU cache; evicted handles are closed and reopened
// on next use.
type BleveGateway struct {
	// mu is held shared while a cached handle is in use and exclusively while
	// handles are opened, so eviction never closes an index mid-call.
	mu        sync.RWMutex
	dir       string
	handles   *lru.Cache[string, bleve.Index]
	lock      *DirLock
	stopWords map[string]struct{}
	closed    bool
}

// NewBleveGateway creates a Bleve gateway rooted at cfg.DataDir.
// An empty DataDir keeps indices in memory; they are never evicted.
func NewBleveGateway(cfg Config) (*BleveGateway, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultConfig().CacheSize
	}
	if cfg.DataDir == "" {
		size = memoryCacheCap
	}

	handles, err := lru.NewWithEvict[string, bleve.Index](size, func(name string, idx bleve.Index) {
		if err := idx.Close(); err != nil {
			slog.Warn("bleve_index_close_failed",
				slog.String("index", name),
				slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index cache: %w", err)
	}

	stopWords := cfg.StopWords
	if stopWords == nil {
		stopWords = DefaultStopWords
	}

	g := &BleveGateway{
		dir:       cfg.DataDir,
		handles:   handles,
		stopWords: BuildStopWordMap(stopWords),
	}

	if g.dir != "" {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", g.dir, err)
		}
		g.lock = NewDirLock(g.dir)
		acquired, err := g.lock.TryLock()
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, serrors.New(serrors.ErrCodeIndexLocked,
				"data directory is in use by another process", nil).
				WithDetail("path", g.dir)
		}
	}

	return g, nil
}

// createIndexMapping maps content through the dictionary analyzer and keeps
// the JSON source stored but unindexed. Stop words are removed before
// content reaches Bleve, so the analyzer has no stop filter.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(DictionaryAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": DictionaryTokenizerName,
		"token_filters": []string{
			lowercase.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = DictionaryAnalyzerName

	content := bleve.NewTextFieldMapping()
	content.Analyzer = DictionaryAnalyzerName
	content.Store = false
	content.IncludeInAll = false

	source := bleve.NewTextFieldMapping()
	source.Index = false
	source.Store = true
	source.IncludeInAll = false
	source.IncludeTermVectors = false
	source.DocValues = false

	seq := bleve.NewNumericFieldMapping()
	seq.Store = false
	seq.IncludeInAll = false
	seq.DocValues = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(contentField, content)
	doc.AddFieldMappingsAt(sourceField, source)
	doc.AddFieldMappingsAt(seqField, seq)
	indexMapping.DefaultMapping = doc

	return indexMapping, nil
}

func (g *BleveGateway) indexPath(name string) string {
	return filepath.Join(g.dir, name+bleveExt)
}

// lookup returns a cached handle. Caller holds mu.
func (g *BleveGateway) lookup(name string) (bleve.Index, bool) {
	return g.handles.Get(name)
}

// open returns the handle for name, opening or creating it as needed.
// Caller holds mu exclusively.
func (g *BleveGateway) open(name string, create bool) (bleve.Index, error) {
	if idx, ok := g.handles.Get(name); ok {
		return idx, nil
	}

	if g.dir == "" {
		if !create {
			return nil, ErrIndexNotFound
		}
		m, err := createIndexMapping()
		if err != nil {
			return nil, err
		}
		idx, err := bleve.NewMemOnly(m)
		if err != nil {
			return nil, fmt.Errorf("failed to create index %s: %w", name, err)
		}
		g.handles.Add(name, idx)
		return idx, nil
	}

	path := g.indexPath(name)
	if validErr := validateIndexIntegrity(path); validErr != nil {
		slog.Warn("bleve_index_corrupted",
			slog.String("index", name),
			slog.String("path", path),
			slog.String("error", validErr.Error()))

		if err := os.RemoveAll(path); err != nil {
			return nil, serrors.New(serrors.ErrCodeCorruptIndex,
				fmt.Sprintf("index %s is corrupted and cannot be removed", name), err)
		}
		slog.Info("bleve_index_cleared",
			slog.String("index", name),
			slog.String("reason", "corruption detected, awaiting resync"))
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		if !create {
			return nil, ErrIndexNotFound
		}
		m, mErr := createIndexMapping()
		if mErr != nil {
			return nil, mErr
		}
		idx, err = bleve.New(path, m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", name, err)
	}

	g.handles.Add(name, idx)
	return idx, nil
}

// withIndex runs fn against the named index.
// Reads on a cached handle share mu; everything else takes it exclusively.
func (g *BleveGateway) withIndex(name string, create, write bool, fn func(bleve.Index) error) error {
	if !ValidIndexName(name) {
		if create {
			return fmt.Errorf("%w: %q", ErrInvalidIndexName, name)
		}
		return ErrIndexNotFound
	}

	if !write {
		g.mu.RLock()
		if g.closed {
			g.mu.RUnlock()
			return ErrClosed
		}
		if idx, ok := g.lookup(name); ok {
			defer g.mu.RUnlock()
			return fn(idx)
		}
		g.mu.RUnlock()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}

	idx, err := g.open(name, create)
	if err != nil {
		return err
	}
	return fn(idx)
}

// Create implements Gateway.
func (g *BleveGateway) Create(ctx context.Context, index string, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document id is required")
	}

	return g.withIndex(index, true, true, func(idx bleve.Index) error {
		tokens := AnalyzeText(doc.Content, g.stopWords)
		entry := bleveDocument{
			Content: strings.Join(tokens, " "),
			Source:  string(doc.Source),
			Seq:     idSeq(doc.ID),
		}
		if err := idx.Index(doc.ID, entry); err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
		return nil
	})
}

// Delete implements Gateway.
func (g *BleveGateway) Delete(ctx context.Context, index, id string) error {
	err := g.withIndex(index, false, true, func(idx bleve.Index) error {
		if err := idx.Delete(id); err != nil {
			return fmt.Errorf("failed to delete document %s: %w", id, err)
		}
		return nil
	})
	if errors.Is(err, ErrIndexNotFound) {
		return nil
	}
	return err
}

// Get implements Gateway.
func (g *BleveGateway) Get(ctx context.Context, index, id string) (*Document, error) {
	var doc *Document
	err := g.withIndex(index, false, false, func(idx bleve.Index) error {
		req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
		req.Size = 1
		req.Fields = []string{sourceField}

		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("get failed: %w", err)
		}
		if len(res.Hits) == 0 {
			return ErrDocumentNotFound
		}

		src, _ := res.Hits[0].Fields[sourceField].(string)
		doc = &Document{ID: res.Hits[0].ID, Source: json.RawMessage(src)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Search implements Gateway.
func (g *BleveGateway) Search(ctx context.Context, index string, sr SearchRequest) (*SearchResult, error) {
	var result *SearchResult
	err := g.withIndex(index, false, false, func(idx bleve.Index) error {
		tokens := AnalyzeText(sr.Query, g.stopWords)

		var q query.Query
		sortBy := search.SortOrder{
			&search.SortScore{Desc: true},
			&search.SortField{Field: seqField, Type: search.SortFieldAsNumber},
			&search.SortDocID{},
		}
		if len(tokens) == 0 {
			q = bleve.NewMatchAllQuery()
			sortBy = sortBy[1:]
		} else {
			conj := bleve.NewConjunctionQuery()
			for i, tok := range tokens {
				if i == len(tokens)-1 {
					pq := bleve.NewPrefixQuery(tok)
					pq.SetField(contentField)
					conj.AddQuery(pq)
					continue
				}
				tq := bleve.NewTermQuery(tok)
				tq.SetField(contentField)
				conj.AddQuery(tq)
			}
			q = conj
		}

		req := bleve.NewSearchRequestOptions(q, sr.Size, sr.From, false)
		req.Fields = []string{sourceField}
		req.SortByCustom(sortBy)

		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		result = &SearchResult{
			Total: int(res.Total),
			Hits:  make([]*Document, 0, len(res.Hits)),
		}
		for _, hit := range res.Hits {
			src, _ := hit.Fields[sourceField].(string)
			result.Hits = append(result.Hits, &Document{ID: hit.ID, Source: json.RawMessage(src)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// idSeq parses an integer id for numeric ordering.
func idSeq(id string) float64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return float64(n)
}

// Exists implements Gateway.
func (g *BleveGateway) Exists(ctx context.Context, index string) (bool, error) {
	if !ValidIndexName(index) {
		return false, nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return false, ErrClosed
	}

	if g.handles.Contains(index) {
		return true, nil
	}
	if g.dir == "" {
		return false, nil
	}
	return dirExists(g.indexPath(index)), nil
}

// Indices implements Gateway.
func (g *BleveGateway) Indices(ctx context.Context) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return nil, ErrClosed
	}

	if g.dir == "" {
		names := g.handles.Keys()
		sort.Strings(names)
		return names, nil
	}
	return listBleveIndices(g.dir)
}

// Close implements Gateway. It is idempotent.
func (g *BleveGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true

	// Purge runs the eviction callback, closing every handle
	g.handles.Purge()

	if g.lock != nil {
		return g.lock.Unlock()
	}
	return nil
}

// listBleveIndices returns the index names stored under dir.
func listBleveIndices(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list indices: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && strings.HasSuffix(e.Name(), bleveExt) {
			names = append(names, strings.TrimSuffix(e.Name(), bleveExt))
		}
	}
	sort.Strings(names)
	return names, nil
}

// validateIndexIntegrity checks a Bleve index directory before opening.
// Returns nil when the index is absent or looks valid.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

var _ Gateway = (*BleveGateway)(nil)

// tokenizerConstructor creates the identifier-aware tokenizer for Bleve.
func tokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &bleveTokenizer{}, nil
}

// bleveTokenizer adapts TokenizeCode to analysis.Tokenizer.
type bleveTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *bleveTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	lowerText := strings.ToLower(text)
	tokens := TokenizeCode(text)

	result := make(analysis.TokenStream, 0, len(tokens))
	offset := 0
	for pos, token := range tokens {
		start := strings.Index(lowerText[offset:], token)
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)
		if end > len(text) {
			end = len(text)
		}

		result = append(result, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos + 1,
			Type:     analysis.AlphaNumeric,
		})
		offset = end
	}

	return result
}
