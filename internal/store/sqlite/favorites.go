package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/store"
)

const favoriteColumns = `verse_id, created_at`

func scanFavorite(scanner interface{ Scan(dest ...any) error }) (*domain.Favorite, error) {
	var (
		f         domain.Favorite
		createdAt string
	)
	if err := scanner.Scan(&f.VerseID, &createdAt); err != nil {
		return nil, err
	}

	var err error
	f.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", f.VerseID, err)
	}
	return &f, nil
}

// UpsertFavorite stores a favorite for verseID, replacing any existing row.
func (s *Store) UpsertFavorite(ctx context.Context, verseID string, createdAt time.Time) error {
	if verseID == "" {
		return store.InvalidInput("verse id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO favorites (verse_id, created_at) VALUES (?, ?)`,
		verseID, formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("upsert favorite %s: %w", verseID, err)
	}
	return nil
}

// DeleteFavorite removes the favorite for verseID. Missing rows are not an error.
func (s *Store) DeleteFavorite(ctx context.Context, verseID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE verse_id = ?`, verseID); err != nil {
		return fmt.Errorf("delete favorite %s: %w", verseID, err)
	}
	return nil
}

// GetFavorite returns the favorite for verseID or store.ErrNotFound.
func (s *Store) GetFavorite(ctx context.Context, verseID string) (*domain.Favorite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorites WHERE verse_id = ?`, verseID)

	f, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListFavorites returns every favorite in persisted (insertion) order.
func (s *Store) ListFavorites(ctx context.Context) ([]domain.Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorites ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var favorites []domain.Favorite
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, *f)
	}
	return favorites, rows.Err()
}

// CountFavorites returns the number of stored favorites.
func (s *Store) CountFavorites(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return n, nil
}
