package favorites

import (
	"context"
	"sync"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/errors"
)

// ErrClosed is returned when subscribing to a closed Reconciler.
var ErrClosed = errors.Unavailable("favorites reconciler is closed")

// StatusSubscription is a live view of one verse's favorite status. C holds
// at most one value: the latest. It is closed when the subscription ends.
type StatusSubscription struct {
	C <-chan bool

	verseID string
	ch      chan bool
	done    chan struct{}
	once    sync.Once
	r       *Reconciler
}

// ListSubscription is a live view of the hydrated favorite list.
type ListSubscription struct {
	C <-chan []*domain.VerseWithPoet

	ch   chan []*domain.VerseWithPoet
	done chan struct{}
	once sync.Once
	r    *Reconciler
}

// WatchStatus subscribes to verseID's favorite status. The current value is
// available on C immediately. The subscription ends when ctx is done or
// Close is called.
func (r *Reconciler) WatchStatus(ctx context.Context, verseID string) (*StatusSubscription, error) {
	if verseID == "" {
		return nil, errors.Validation("verse id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.lookup(ctx, verseID)
	if err != nil {
		return nil, err
	}

	ch := make(chan bool, 1)
	sub := &StatusSubscription{C: ch, verseID: verseID, ch: ch, done: make(chan struct{}), r: r}
	ch <- current

	r.subsMu.Lock()
	if r.closed {
		r.subsMu.Unlock()
		return nil, ErrClosed
	}
	subs := r.statusSubs[verseID]
	if subs == nil {
		subs = make(map[*StatusSubscription]struct{})
		r.statusSubs[verseID] = subs
	}
	subs[sub] = struct{}{}
	r.subsMu.Unlock()

	go closeOnDone(ctx, sub.done, sub.Close)
	return sub, nil
}

// WatchList subscribes to the hydrated favorite list. The first value arrives
// once the current list has been hydrated.
func (r *Reconciler) WatchList(ctx context.Context) (*ListSubscription, error) {
	ch := make(chan []*domain.VerseWithPoet, 1)
	sub := &ListSubscription{C: ch, ch: ch, done: make(chan struct{}), r: r}

	r.subsMu.Lock()
	if r.closed {
		r.subsMu.Unlock()
		return nil, ErrClosed
	}
	r.listSubs[sub] = struct{}{}
	r.subsMu.Unlock()

	r.markDirty()
	go closeOnDone(ctx, sub.done, sub.Close)
	return sub, nil
}

// VerseID returns the verse this subscription watches.
func (s *StatusSubscription) VerseID() string { return s.verseID }

// Close ends the subscription. It is safe to call more than once.
func (s *StatusSubscription) Close() {
	s.r.subsMu.Lock()
	defer s.r.subsMu.Unlock()

	if subs := s.r.statusSubs[s.verseID]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.r.statusSubs, s.verseID)
		}
	}
	s.closeLocked()
}

func (s *StatusSubscription) closeLocked() {
	s.once.Do(func() {
		close(s.done)
		close(s.ch)
	})
}

// Close ends the subscription. It is safe to call more than once.
func (s *ListSubscription) Close() {
	s.r.subsMu.Lock()
	defer s.r.subsMu.Unlock()

	delete(s.r.listSubs, s)
	s.closeLocked()
}

func (s *ListSubscription) closeLocked() {
	s.once.Do(func() {
		close(s.done)
		close(s.ch)
	})
}

func closeOnDone(ctx context.Context, done <-chan struct{}, closeFn func()) {
	select {
	case <-ctx.Done():
		closeFn()
	case <-done:
	}
}
