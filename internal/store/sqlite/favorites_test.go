package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/rizwanabrish101/shayari/internal/store"
)

func favoriteIDs(t *testing.T, s *Store) []string {
	t.Helper()
	favs, err := s.ListFavorites(context.Background())
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	ids := make([]string, len(favs))
	for i, f := range favs {
		ids[i] = f.VerseID
	}
	return ids
}

func TestUpsertFavorite_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.UTC)

	if err := s.UpsertFavorite(ctx, "1", created); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.GetFavorite(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.VerseID != "1" {
		t.Errorf("verse id = %q, want 1", got.VerseID)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created)
	}
}

func TestUpsertFavorite_ReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"1", "2", "1"} {
		if err := s.UpsertFavorite(ctx, id, t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	n, err := s.CountFavorites(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}

	// A re-add moves the favorite to the end.
	if ids := favoriteIDs(t, s); !slices.Equal(ids, []string{"2", "1"}) {
		t.Errorf("order = %v, want [2 1]", ids)
	}

	got, err := s.GetFavorite(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if want := t0.Add(2 * time.Minute); !got.CreatedAt.Equal(want) {
		t.Errorf("created_at = %v, want refreshed %v", got.CreatedAt, want)
	}
}

func TestUpsertFavorite_EmptyID(t *testing.T) {
	s := newTestStore(t)

	err := s.UpsertFavorite(context.Background(), "", time.Now())
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDeleteFavorite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertFavorite(ctx, "7", time.Now()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.DeleteFavorite(ctx, "7"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteFavorite(ctx, "7"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}

	_, err := s.GetFavorite(ctx, "7")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListFavorites_InsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	want := []string{"12", "3", "1", "10"}
	for _, id := range want {
		if err := s.UpsertFavorite(ctx, id, now); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	if ids := favoriteIDs(t, s); !slices.Equal(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
}

func TestFavorites_PersistAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "favorites.db")
	ctx := context.Background()

	s, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.UpsertFavorite(ctx, "5", time.Now()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	s.Close()

	s2, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("re-open: %v", err)
	}
	defer s2.Close()

	if ids := favoriteIDs(t, s2); !slices.Equal(ids, []string{"5"}) {
		t.Errorf("ids = %v, want [5]", ids)
	}
}
