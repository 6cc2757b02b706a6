package favorites

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rizwanabrish101/shayari/internal/domain"
	apperrors "github.com/rizwanabrish101/shayari/internal/errors"
	"github.com/rizwanabrish101/shayari/internal/sse"
	"github.com/rizwanabrish101/shayari/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStore is an in-memory Store that keeps persisted order.
type memStore struct {
	mu      sync.Mutex
	favs    []domain.Favorite
	failErr error
}

func (s *memStore) UpsertFavorite(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.favs = slices.DeleteFunc(s.favs, func(f domain.Favorite) bool { return f.VerseID == id })
	s.favs = append(s.favs, domain.Favorite{VerseID: id, CreatedAt: at})
	return nil
}

func (s *memStore) DeleteFavorite(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.favs = slices.DeleteFunc(s.favs, func(f domain.Favorite) bool { return f.VerseID == id })
	return nil
}

func (s *memStore) GetFavorite(_ context.Context, id string) (*domain.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favs {
		if f.VerseID == id {
			return &f, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) ListFavorites(context.Context) ([]domain.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.favs), nil
}

func (s *memStore) setFail(err error) {
	s.mu.Lock()
	s.failErr = err
	s.mu.Unlock()
}

// memContent resolves verses from a map; ids in failing return an error.
type memContent struct {
	verses  map[string]*domain.VerseWithPoet
	failing map[string]bool
}

func newContent(ids ...string) *memContent {
	c := &memContent{verses: map[string]*domain.VerseWithPoet{}, failing: map[string]bool{}}
	for _, id := range ids {
		c.verses[id] = &domain.VerseWithPoet{Verse: domain.Verse{ID: id, Text: "verse " + id}}
	}
	return c
}

func (c *memContent) GetVerse(_ context.Context, id string) (*domain.VerseWithPoet, error) {
	if c.failing[id] {
		return nil, fmt.Errorf("content source unavailable for %s", id)
	}
	v, ok := c.verses[id]
	if !ok {
		return nil, apperrors.NotFoundf("verse %s not found", id)
	}
	return v, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (e *recordingEmitter) Emit(event any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event.(sse.Event))
}

func (e *recordingEmitter) types() []sse.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []sse.EventType
	for _, evt := range e.events {
		out = append(out, evt.Type)
	}
	return out
}

func newReconciler(t *testing.T, content *memContent) (*Reconciler, *memStore) {
	t.Helper()
	st := &memStore{}
	r := New(st, content, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r, st
}

func ids(verses []*domain.VerseWithPoet) []string {
	out := make([]string, 0, len(verses))
	for _, v := range verses {
		out = append(out, v.ID)
	}
	return out
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription value")
	}
	var zero T
	return zero
}

// drained reports whether ch is closed, discarding any pending value.
func drained[T any](ch <-chan T) bool {
	select {
	case _, open := <-ch:
		return !open
	default:
		return false
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	r, _ := newReconciler(t, newContent("1"))
	ctx := context.Background()

	fav, err := r.Add(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", fav.VerseID)
	assert.False(t, fav.CreatedAt.IsZero())

	ok, err := r.IsFavorite(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Remove(ctx, "1"))
	ok, err = r.IsFavorite(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddTwiceKeepsOneRecord(t *testing.T) {
	r, st := newReconciler(t, newContent("1", "2"))
	ctx := context.Background()

	_, err := r.Add(ctx, "1")
	require.NoError(t, err)
	_, err = r.Add(ctx, "2")
	require.NoError(t, err)
	_, err = r.Add(ctx, "1")
	require.NoError(t, err)

	favs, err := st.ListFavorites(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 2)

	list, err := r.ListFavorites(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"2", "1"}, ids(list)); diff != "" {
		t.Errorf("re-added favorite should move to the end (-want +got):\n%s", diff)
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	r, _ := newReconciler(t, newContent())
	require.NoError(t, r.Remove(context.Background(), "missing"))
}

func TestEmptyIDIsValidationError(t *testing.T) {
	r, _ := newReconciler(t, newContent())
	ctx := context.Background()

	_, err := r.Add(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.ErrorIs(t, r.Remove(ctx, ""), apperrors.ErrValidation)
	_, err = r.IsFavorite(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = r.WatchStatus(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestStoreFailureIsSurfacedAndStateUnchanged(t *testing.T) {
	r, st := newReconciler(t, newContent("1"))
	ctx := context.Background()

	sub, err := r.WatchStatus(ctx, "1")
	require.NoError(t, err)
	defer sub.Close()
	assert.False(t, recv(t, sub.C))

	diskErr := errors.New("disk full")
	st.setFail(diskErr)

	_, err = r.Add(ctx, "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, diskErr)
	assert.ErrorIs(t, err, apperrors.ErrInternal)

	ok, err := r.IsFavorite(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	select {
	case v := <-sub.C:
		t.Fatalf("failed mutation must not notify, got %v", v)
	default:
	}
}

func TestListFiltersOrphansAndFailures(t *testing.T) {
	content := newContent("1", "3")
	content.failing["3"] = true
	r, _ := newReconciler(t, content)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		_, err := r.Add(ctx, id)
		require.NoError(t, err)
	}

	list, err := r.ListFavorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(list))

	// The records survive hydration failures.
	for _, id := range []string{"2", "3"} {
		ok, err := r.IsFavorite(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok, id)
	}
}

func TestHydratePartitionsInOrder(t *testing.T) {
	content := newContent("a", "c", "e")
	content.failing["d"] = true
	r, _ := newReconciler(t, content)

	var favs []domain.Favorite
	for _, id := range []string{"e", "d", "c", "b", "a"} {
		favs = append(favs, domain.Favorite{VerseID: id})
	}

	report := r.Hydrate(context.Background(), favs)
	if diff := cmp.Diff([]string{"e", "c", "a"}, ids(report.Verses)); diff != "" {
		t.Errorf("hydrated order (-want +got):\n%s", diff)
	}

	failed := make([]string, 0, len(report.Failed))
	for _, f := range report.Failed {
		failed = append(failed, f.VerseID)
		assert.Error(t, f.Err)
	}
	assert.Equal(t, []string{"d", "b"}, failed)
	assert.ErrorIs(t, report.Failed[1].Err, apperrors.ErrNotFound)
}

func TestHydrateManyKeepsOrder(t *testing.T) {
	var all []string
	for i := range 50 {
		all = append(all, fmt.Sprintf("v%02d", i))
	}
	r, _ := newReconciler(t, newContent(all...))

	favs := make([]domain.Favorite, 0, len(all))
	for _, id := range all {
		favs = append(favs, domain.Favorite{VerseID: id})
	}
	report := r.Hydrate(context.Background(), favs)
	assert.Empty(t, report.Failed)
	assert.Equal(t, all, ids(report.Verses))
}

func TestTwoStatusSubscribersSeeOneAdd(t *testing.T) {
	r, _ := newReconciler(t, newContent("7"))
	ctx := context.Background()

	home, err := r.WatchStatus(ctx, "7")
	require.NoError(t, err)
	defer home.Close()
	search, err := r.WatchStatus(ctx, "7")
	require.NoError(t, err)
	defer search.Close()

	assert.False(t, recv(t, home.C))
	assert.False(t, recv(t, search.C))

	_, err = r.Add(ctx, "7")
	require.NoError(t, err)

	assert.True(t, recv(t, home.C))
	assert.True(t, recv(t, search.C))
	assert.Equal(t, "7", home.VerseID())
}

func TestStatusSubscriberIgnoresOtherVerses(t *testing.T) {
	r, _ := newReconciler(t, newContent("1", "2"))
	ctx := context.Background()

	sub, err := r.WatchStatus(ctx, "1")
	require.NoError(t, err)
	defer sub.Close()
	recv(t, sub.C)

	_, err = r.Add(ctx, "2")
	require.NoError(t, err)

	select {
	case v := <-sub.C:
		t.Fatalf("unexpected value %v", v)
	default:
	}
}

func TestStatusSubscriptionKeepsLatestValue(t *testing.T) {
	r, _ := newReconciler(t, newContent("1"))
	ctx := context.Background()

	sub, err := r.WatchStatus(ctx, "1")
	require.NoError(t, err)
	defer sub.Close()

	// Nobody reads while the value flips; only the final state is kept.
	for range 5 {
		_, err = r.Add(ctx, "1")
		require.NoError(t, err)
		require.NoError(t, r.Remove(ctx, "1"))
	}
	_, err = r.Add(ctx, "1")
	require.NoError(t, err)

	assert.True(t, recv(t, sub.C))
	select {
	case v := <-sub.C:
		t.Fatalf("expected a single buffered value, got another: %v", v)
	default:
	}
}

func TestConcurrentMutationsOnSameVerseEndConsistent(t *testing.T) {
	r, st := newReconciler(t, newContent("1"))
	ctx := context.Background()

	sub, err := r.WatchStatus(ctx, "1")
	require.NoError(t, err)
	defer sub.Close()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			if i%2 == 0 {
				_, _ = r.Add(ctx, "1")
			} else {
				_ = r.Remove(ctx, "1")
			}
		})
	}
	wg.Wait()

	stored, err := r.IsFavorite(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, stored, recv(t, sub.C), "subscriber must converge on the persisted state")

	favs, err := st.ListFavorites(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(favs), 1)
}

func TestWatchListRefreshesAfterMutations(t *testing.T) {
	r, _ := newReconciler(t, newContent("1", "2"))
	ctx := context.Background()

	sub, err := r.WatchList(ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, recv(t, sub.C))

	_, err = r.Add(ctx, "1")
	require.NoError(t, err)
	_, err = r.Add(ctx, "2")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		select {
		case list := <-sub.C:
			return cmp.Equal([]string{"1", "2"}, ids(list))
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, r.Remove(ctx, "1"))
	require.Eventually(t, func() bool {
		select {
		case list := <-sub.C:
			return cmp.Equal([]string{"2"}, ids(list))
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	r, _ := newReconciler(t, newContent("1"))
	ctx, cancel := context.WithCancel(context.Background())

	status, err := r.WatchStatus(ctx, "1")
	require.NoError(t, err)
	list, err := r.WatchList(ctx)
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool { return drained(status.C) }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return drained(list.C) }, 2*time.Second, 5*time.Millisecond)

	// Mutations after the subscription ended must not panic.
	_, err = r.Add(context.Background(), "1")
	require.NoError(t, err)
}

func TestCloseEndsSubscriptions(t *testing.T) {
	st := &memStore{}
	r := New(st, newContent(), nil, nil)
	ctx := context.Background()

	status, err := r.WatchStatus(ctx, "1")
	require.NoError(t, err)
	list, err := r.WatchList(ctx)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	for range status.C {
	}
	for range list.C {
	}
	status.Close()

	_, err = r.WatchList(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = r.WatchStatus(ctx, "1")
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestMutationsEmitEvents(t *testing.T) {
	emitter := &recordingEmitter{}
	r := New(&memStore{}, newContent(), emitter, nil)
	defer r.Close()
	ctx := context.Background()

	_, err := r.Add(ctx, "1")
	require.NoError(t, err)
	require.NoError(t, r.Remove(ctx, "1"))

	assert.Equal(t, []sse.EventType{sse.EventFavoriteAdded, sse.EventFavoriteRemoved}, emitter.types())
}
