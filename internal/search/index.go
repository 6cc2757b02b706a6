package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/rizwanabrish101/shayari/internal/domain"
)

// mappingVersion is bumped whenever buildIndexMapping changes; an index
// built with another version is discarded on open.
const mappingVersion = "2"

// Internal keys stored alongside the documents.
var (
	keyMappingVersion  = []byte("mapping_version")
	keyCatalogRevision = []byte("catalog_revision")
)

// SearchIndex wraps a Bleve index of verses and poets. It is always rebuilt
// wholesale from the catalog; searches keep reading the previous index until
// a rebuild is swapped in.
type SearchIndex struct {
	path   string
	logger *slog.Logger

	// buildMu serializes Reindex; mu guards index.
	buildMu sync.Mutex
	mu      sync.RWMutex
	index   bleve.Index
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory holding search.bleve
	Logger   *slog.Logger // Defaults to a discard logger
}

// NewSearchIndex opens the index under opts.DataPath, creating an empty one
// when it is missing, unreadable or built with an older mapping.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	if opts.DataPath == "" {
		return nil, errors.New("search index data path is empty")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create search directory: %w", err)
	}

	s := &SearchIndex{
		path:   filepath.Join(opts.DataPath, "search.bleve"),
		logger: logger,
	}

	index, err := bleve.Open(s.path)
	switch {
	case err == nil:
		if v, _ := index.GetInternal(keyMappingVersion); string(v) == mappingVersion {
			s.index = index
			logger.Info("opened search index", "path", s.path)
			return s, nil
		}
		logger.Info("search mapping changed, recreating index", "mapping_version", mappingVersion)
		_ = index.Close()
	case !errors.Is(err, bleve.ErrorIndexPathDoesNotExist):
		logger.Warn("search index unreadable, recreating", "path", s.path, "error", err)
	}

	if err := os.RemoveAll(s.path); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}
	if s.index, err = createIndex(s.path); err != nil {
		return nil, err
	}
	logger.Info("created search index", "path", s.path, "mapping_version", mappingVersion)
	return s, nil
}

func createIndex(path string) (bleve.Index, error) {
	index, err := bleve.New(path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if err := index.SetInternal(keyMappingVersion, []byte(mappingVersion)); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("record mapping version: %w", err)
	}
	return index, nil
}

// Close closes the index.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// DocumentCount returns the number of indexed verses and poets.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Revision returns the catalog revision the index was built from, or 0 for
// an index that was never filled.
func (s *SearchIndex) Revision() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := s.index.GetInternal(keyCatalogRevision)
	if err != nil || len(raw) == 0 {
		return 0, err
	}
	return strconv.Atoi(string(raw))
}

// Reindex builds a fresh index from verses and poets next to the live one
// and swaps it in, recording revision. A failed build leaves the live index
// untouched.
func (s *SearchIndex) Reindex(ctx context.Context, revision int, verses []*domain.VerseWithPoet, poets []*domain.Poet) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	docs := make([]*SearchDocument, 0, len(verses)+len(poets))
	for _, v := range verses {
		docs = append(docs, VerseToSearchDocument(v))
	}
	for _, p := range poets {
		docs = append(docs, PoetToSearchDocument(p))
	}

	next := s.path + ".next"
	if err := os.RemoveAll(next); err != nil {
		return fmt.Errorf("clear staging index: %w", err)
	}
	staged, err := createIndex(next)
	if err != nil {
		return err
	}

	if err := fill(ctx, staged, docs, revision); err != nil {
		_ = staged.Close()
		_ = os.RemoveAll(next)
		return err
	}
	if err := staged.Close(); err != nil {
		_ = os.RemoveAll(next)
		return fmt.Errorf("close staging index: %w", err)
	}

	if err := s.swap(next); err != nil {
		return err
	}

	s.logger.Info("search index rebuilt", "revision", revision, "verses", len(verses), "poets", len(poets))
	return nil
}

// fill indexes docs in batches and records revision.
func fill(ctx context.Context, index bleve.Index, docs []*SearchDocument, revision int) error {
	const batchSize = 500

	for start := 0; start < len(docs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batchSize, len(docs))
		batch := index.NewBatch()
		for _, doc := range docs[start:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("index %s: %w", doc.ID, err)
			}
		}
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", start, end, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return index.SetInternal(keyCatalogRevision, []byte(strconv.Itoa(revision)))
}

// swap replaces the live index directory with next and reopens it.
func (s *SearchIndex) swap(next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		s.logger.Warn("close live index", "error", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return s.reopen(fmt.Errorf("remove live index: %w", err))
	}
	if err := os.Rename(next, s.path); err != nil {
		return s.reopen(fmt.Errorf("move rebuilt index: %w", err))
	}
	return s.reopen(nil)
}

// reopen opens whatever index is at s.path, falling back to an empty one, so
// the SearchIndex stays usable after a failed swap. cause is returned
// joined with any reopen error.
func (s *SearchIndex) reopen(cause error) error {
	index, err := bleve.Open(s.path)
	if err != nil {
		_ = os.RemoveAll(s.path)
		var createErr error
		if index, createErr = createIndex(s.path); createErr != nil {
			return errors.Join(cause, err, createErr)
		}
	}
	s.index = index
	return cause
}
