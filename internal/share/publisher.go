// Package share composes verse images and publishes them for sharing,
// either on the local disk behind the API or in an S3-compatible bucket.
package share

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/media/images"
)

// ErrObjectNotFound is returned when a published object no longer exists.
var ErrObjectNotFound = errors.New("published image not found")

// Published locates a stored image.
type Published struct {
	Key string
	URL string
}

// Publisher stores composed PNG images.
type Publisher interface {
	// Backend names the publisher ("local" or "s3").
	Backend() string
	// Publish stores data for the share id.
	Publish(ctx context.Context, id string, data []byte) (*Published, error)
	// URL returns a current URL for a stored share. Presigned URLs expire, so
	// callers ask again rather than caching.
	URL(ctx context.Context, sh *domain.Share) (string, error)
	// Open returns the stored bytes.
	Open(ctx context.Context, key string) ([]byte, error)
	// Delete removes the stored object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}

// LocalPublisher keeps images in the data directory; the API serves them.
type LocalPublisher struct {
	storage *images.Storage
	prefix  string
}

// NewLocalPublisher creates a publisher over storage. URLs are
// {prefix}/{id}/image, matching the API route that serves them.
func NewLocalPublisher(storage *images.Storage, prefix string) *LocalPublisher {
	return &LocalPublisher{storage: storage, prefix: strings.TrimRight(prefix, "/")}
}

// Backend implements Publisher.
func (p *LocalPublisher) Backend() string { return "local" }

// Publish implements Publisher. The storage key is the share id.
func (p *LocalPublisher) Publish(ctx context.Context, id string, data []byte) (*Published, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.storage.Save(id, data); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	return &Published{Key: id, URL: p.url(id)}, nil
}

// URL implements Publisher.
func (p *LocalPublisher) URL(_ context.Context, sh *domain.Share) (string, error) {
	return p.url(sh.StorageKey), nil
}

func (p *LocalPublisher) url(key string) string {
	return p.prefix + "/" + key + "/image"
}

// Open implements Publisher.
func (p *LocalPublisher) Open(_ context.Context, key string) ([]byte, error) {
	data, err := p.storage.Get(key)
	if errors.Is(err, images.ErrNotFound) {
		return nil, ErrObjectNotFound
	}
	return data, err
}

// Delete implements Publisher.
func (p *LocalPublisher) Delete(_ context.Context, key string) error {
	return p.storage.Delete(key)
}
