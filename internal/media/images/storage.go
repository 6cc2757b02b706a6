// Package images stores published share images and derives their
// placeholders.
package images

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when no image is stored under a key.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidKey rejects empty keys and keys that would leave the directory.
	ErrInvalidKey = errors.New("invalid image key")
)

const sharesDir = "shares"

// Storage keeps PNG files in {base}/shares, one per key. Writes go through a
// temp file and rename so readers never observe a partial image.
type Storage struct {
	dir string
	mu  sync.RWMutex
}

// NewStorage creates the shares directory under base if needed.
func NewStorage(base string) (*Storage, error) {
	if base == "" {
		return nil, errors.New("images: base path is empty")
	}
	dir := filepath.Join(base, sharesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("images: create %s: %w", dir, err)
	}
	return &Storage{dir: dir}, nil
}

func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || !filepath.IsLocal(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Path returns the file backing key.
func (s *Storage) Path(key string) string {
	return filepath.Join(s.dir, key+".png")
}

// Save writes data under key, replacing any previous image.
func (s *Storage) Save(key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("images: image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.Path(key)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("images: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("images: commit %s: %w", key, err)
	}
	return nil
}

// Get reads the image stored under key.
func (s *Storage) Get(key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("images: read %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether key has a stored image.
func (s *Storage) Exists(key string) bool {
	if checkKey(key) != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Delete removes the image under key. A missing image is not an error.
func (s *Storage) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("images: delete %s: %w", key, err)
	}
	return nil
}

// ETag returns a strong entity tag for data.
func ETag(data []byte) string {
	sum := sha256.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
