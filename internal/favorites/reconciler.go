// Package favorites keeps the persisted favorite set and every live view of
// it consistent. Mutations go through a Reconciler, which pushes the new
// state to status and list subscribers after each commit.
package favorites

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/errors"
	"github.com/rizwanabrish101/shayari/internal/sse"
	"github.com/rizwanabrish101/shayari/internal/store"
)

// Store is the durable favorite set.
type Store interface {
	UpsertFavorite(ctx context.Context, verseID string, createdAt time.Time) error
	DeleteFavorite(ctx context.Context, verseID string) error
	// GetFavorite returns store.ErrNotFound when verseID is not a favorite.
	GetFavorite(ctx context.Context, verseID string) (*domain.Favorite, error)
	// ListFavorites returns favorites in persisted order.
	ListFavorites(ctx context.Context) ([]domain.Favorite, error)
}

// ContentSource resolves verse identifiers to hydrated verses.
type ContentSource interface {
	GetVerse(ctx context.Context, id string) (*domain.VerseWithPoet, error)
}

// Reconciler is the single source of truth for favorite membership.
type Reconciler struct {
	store   Store
	content ContentSource
	emitter store.EventEmitter
	logger  *slog.Logger
	now     func() time.Time

	// mu serializes mutations and status registration so a subscriber's
	// initial value is never older than a change it is notified about.
	mu sync.Mutex

	subsMu     sync.Mutex
	statusSubs map[string]map[*StatusSubscription]struct{}
	listSubs   map[*ListSubscription]struct{}
	closed     bool

	dirty  chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Reconciler and starts its list refresher.
func New(st Store, content ContentSource, emitter store.EventEmitter, logger *slog.Logger) *Reconciler {
	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Reconciler{
		store:      st,
		content:    content,
		emitter:    emitter,
		logger:     logger,
		now:        time.Now,
		statusSubs: make(map[string]map[*StatusSubscription]struct{}),
		listSubs:   make(map[*ListSubscription]struct{}),
		dirty:      make(chan struct{}, 1),
		cancel:     cancel,
	}

	r.wg.Add(1)
	go r.refreshLoop(ctx)
	return r
}

// Add marks verseID as a favorite. Adding an existing favorite replaces its
// record, which refreshes the timestamp and moves it to the end of the list.
// The verse is not checked against the content source.
func (r *Reconciler) Add(ctx context.Context, verseID string) (*domain.Favorite, error) {
	if verseID == "" {
		return nil, errors.Validation("verse id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fav := &domain.Favorite{VerseID: verseID, CreatedAt: r.now().UTC()}
	if err := r.store.UpsertFavorite(ctx, verseID, fav.CreatedAt); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "add favorite %s", verseID)
	}

	r.committed(verseID, true)
	r.emitter.Emit(sse.NewFavoriteAddedEvent(verseID))
	r.logger.Debug("favorite added", slog.String("verse_id", verseID))
	return fav, nil
}

// Remove deletes the favorite for verseID. Removing a verse that is not a
// favorite is not an error.
func (r *Reconciler) Remove(ctx context.Context, verseID string) error {
	if verseID == "" {
		return errors.Validation("verse id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.DeleteFavorite(ctx, verseID); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "remove favorite %s", verseID)
	}

	r.committed(verseID, false)
	r.emitter.Emit(sse.NewFavoriteRemovedEvent(verseID))
	r.logger.Debug("favorite removed", slog.String("verse_id", verseID))
	return nil
}

// IsFavorite reports whether verseID is currently a favorite.
func (r *Reconciler) IsFavorite(ctx context.Context, verseID string) (bool, error) {
	if verseID == "" {
		return false, errors.Validation("verse id is required")
	}
	return r.lookup(ctx, verseID)
}

func (r *Reconciler) lookup(ctx context.Context, verseID string) (bool, error) {
	_, err := r.store.GetFavorite(ctx, verseID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, errors.Wrapf(err, errors.CodeInternal, "read favorite %s", verseID)
	}
}

// ListFavorites returns the hydrated favorites in persisted order. Favorites
// whose verse cannot be resolved are left out.
func (r *Reconciler) ListFavorites(ctx context.Context) ([]*domain.VerseWithPoet, error) {
	favs, err := r.store.ListFavorites(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list favorites")
	}
	return r.Hydrate(ctx, favs).Verses, nil
}

// committed pushes a membership change to status subscribers and schedules a
// list refresh. Called with r.mu held.
func (r *Reconciler) committed(verseID string, isFavorite bool) {
	r.subsMu.Lock()
	for sub := range r.statusSubs[verseID] {
		offer(sub.ch, isFavorite)
	}
	hasListSubs := len(r.listSubs) > 0
	r.subsMu.Unlock()

	if hasListSubs {
		r.markDirty()
	}
}

func (r *Reconciler) markDirty() {
	select {
	case r.dirty <- struct{}{}:
	default:
	}
}

// refreshLoop recomputes the hydrated list whenever it is marked dirty and
// offers it to list subscribers. A change during hydration marks it dirty
// again, so subscribers converge on the latest state.
func (r *Reconciler) refreshLoop(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.dirty:
		}

		verses, err := r.ListFavorites(ctx)
		if err != nil {
			if ctx.Err() == nil {
				r.logger.Warn("favorite list refresh failed", slog.String("error", err.Error()))
			}
			continue
		}

		r.subsMu.Lock()
		for sub := range r.listSubs {
			offer(sub.ch, verses)
		}
		r.subsMu.Unlock()
	}
}

// Close stops the refresher and closes every open subscription.
func (r *Reconciler) Close() error {
	r.cancel()
	r.wg.Wait()

	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	for _, subs := range r.statusSubs {
		for sub := range subs {
			sub.closeLocked()
		}
	}
	for sub := range r.listSubs {
		sub.closeLocked()
	}
	r.statusSubs = make(map[string]map[*StatusSubscription]struct{})
	r.listSubs = make(map[*ListSubscription]struct{})
	return nil
}

// Shutdown implements do.ShutdownerWithError.
func (r *Reconciler) Shutdown() error {
	return r.Close()
}

// offer replaces any unread value in ch with v. The caller must be the only
// sender on ch.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
