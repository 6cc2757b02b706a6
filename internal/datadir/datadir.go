// Package datadir lays out the data directory and guards it with a lock
// file so a server and the CLI never open the same stores at once.
package datadir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the data directory.
var ErrLocked = errors.New("data directory is in use by another process")

const lockFile = "shayari.lock"

// Paths of the stores inside a data directory.
type Paths struct {
	Base      string
	Catalog   string // Badger: catalog and share metadata
	Favorites string // SQLite favorite store
	Search    string // Bleve index directory
}

// Layout returns the store paths under base.
func Layout(base string) Paths {
	return Paths{
		Base:      base,
		Catalog:   filepath.Join(base, "db"),
		Favorites: filepath.Join(base, "favorites.db"),
		Search:    base,
	}
}

// Lock is an exclusive hold on a data directory.
type Lock struct {
	flock *flock.Flock
}

// Acquire creates dir if needed and takes its lock without blocking.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	f := flock.New(filepath.Join(dir, lockFile))
	ok, err := f.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return &Lock{flock: f}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.flock.Path()
}

// Release unlocks the directory. It is safe to call more than once.
func (l *Lock) Release() error {
	return l.flock.Unlock()
}
