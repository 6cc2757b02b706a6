package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/store"
)

func TestReplaceCatalog(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rev, err := s.CatalogRevision(ctx)
	require.NoError(t, err)
	assert.Zero(t, rev)

	require.NoError(t, s.ReplaceCatalog(ctx,
		[]*domain.Poet{{ID: "iqbal"}, {ID: "ghalib"}},
		[]*domain.Category{{ID: "ghazal"}},
		[]*domain.Verse{{ID: "1", PoetID: "iqbal", CategoryID: "ghazal"}, {ID: "2", PoetID: "ghalib", CategoryID: "ghazal"}},
	))
	require.NoError(t, s.Shares.Put(ctx, "shr-1", &domain.Share{ID: "shr-1", VerseID: "1"}))

	// Second import drops records missing from the new dataset.
	require.NoError(t, s.ReplaceCatalog(ctx,
		[]*domain.Poet{{ID: "faiz"}},
		[]*domain.Category{{ID: "nazm"}},
		[]*domain.Verse{{ID: "3", PoetID: "faiz", CategoryID: "nazm"}},
	))

	rev, err = s.CatalogRevision(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rev)

	poets, err := store.Collect(s.Poets.List(ctx))
	require.NoError(t, err)
	require.Len(t, poets, 1)
	assert.Equal(t, "faiz", poets[0].ID)

	byIqbal, err := store.Collect(s.Verses.ListByIndex(ctx, "poet", "iqbal"))
	require.NoError(t, err)
	assert.Empty(t, byIqbal, "stale index entries are removed")

	_, err = s.Shares.Get(ctx, "shr-1")
	assert.NoError(t, err, "shares survive catalog imports")
}
