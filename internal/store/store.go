// Package store persists the content catalog and share metadata in Badger.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/rizwanabrish101/shayari/internal/domain"
)

// Key prefixes.
const (
	prefixPoet     = "poet:"
	prefixCategory = "category:"
	prefixVerse    = "verse:"
	prefixShare    = "share:"
	keyCatalogRev  = "meta:catalog_revision"
)

// EventEmitter is the interface for emitting SSE events.
// Components use it to broadcast changes without depending on the SSE package.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Poets      *Entity[domain.Poet]
	Categories *Entity[domain.Category]
	Verses     *Entity[domain.Verse]
	Shares     *Entity[domain.Share]
}

// New opens (or creates) the Badger database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes so a crash never loses an import
	opts.CompactL0OnClose = true // Faster startup on the next open

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}

	s.Poets = NewEntity[domain.Poet](s, prefixPoet)
	s.Categories = NewEntity[domain.Category](s, prefixCategory)
	s.Verses = NewEntity[domain.Verse](s, prefixVerse).
		WithIndex("poet", func(v *domain.Verse) []string { return []string{v.PoetID} }).
		WithIndex("category", func(v *domain.Verse) []string { return []string{v.CategoryID} })
	s.Shares = NewEntity[domain.Share](s, prefixShare).
		WithIndex("verse", func(sh *domain.Share) []string {
			if sh.VerseID == "" {
				return nil
			}
			return []string{sh.VerseID}
		})

	if logger != nil {
		logger.Info("Badger database opened", "path", path)
	}

	return s, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing badger database")
	}
	return s.db.Close()
}

// CatalogRevision returns a counter incremented by every ReplaceCatalog.
// Zero means the catalog has never been imported.
func (s *Store) CatalogRevision(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var rev int
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyCatalogRev))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			_, err := fmt.Sscanf(string(val), "%d", &rev)
			return err
		})
	})
	return rev, err
}

// ReplaceCatalog atomically swaps the whole catalog for the given records.
// Share metadata is left untouched.
func (s *Store) ReplaceCatalog(ctx context.Context, poets []*domain.Poet, categories []*domain.Category, verses []*domain.Verse) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rev, err := s.CatalogRevision(ctx)
	if err != nil {
		return fmt.Errorf("read catalog revision: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, prefix := range []string{prefixPoet, prefixCategory, prefixVerse} {
			if err := deletePrefix(txn, prefix); err != nil {
				return err
			}
		}
		for _, p := range poets {
			if err := s.Poets.put(txn, p.ID, p, nil); err != nil {
				return err
			}
		}
		for _, c := range categories {
			if err := s.Categories.put(txn, c.ID, c, nil); err != nil {
				return err
			}
		}
		for _, v := range verses {
			if err := s.Verses.put(txn, v.ID, v, nil); err != nil {
				return err
			}
		}
		return txn.Set([]byte(keyCatalogRev), fmt.Appendf(nil, "%d", rev+1))
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("catalog too large for a single transaction: %w", err)
	}
	if err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Catalog replaced",
			"poets", len(poets), "categories", len(categories), "verses", len(verses), "revision", rev+1)
	}
	return nil
}

// deletePrefix removes every key under prefix inside txn.
func deletePrefix(txn *badger.Txn, prefix string) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}
