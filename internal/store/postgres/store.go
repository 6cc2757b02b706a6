// Package postgres is an optional persisted favorite store on PostgreSQL,
// for installs that already run a database server.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/store"
	"github.com/rizwanabrish101/shayari/internal/store/postgres/migrations"
)

// Store provides PostgreSQL-backed favorite persistence.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// sqlOpen and gooseUpContext are seams for tests.
var (
	sqlOpen        = sql.Open
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
)

// Open connects to dsn with the pgx driver and applies pending migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := New(db, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("PostgreSQL favorite store opened")
	}
	return s, nil
}

// New wraps an existing connection pool. Migrations are not run.
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertFavorite stores a favorite for verseID. An existing row is refreshed
// and moved to the end of the persisted order.
func (s *Store) UpsertFavorite(ctx context.Context, verseID string, createdAt time.Time) error {
	if verseID == "" {
		return store.InvalidInput("verse id is required")
	}

	query := `INSERT INTO favorites (verse_id, created_at)
		VALUES ($1, $2)
		ON CONFLICT (verse_id) DO UPDATE
		SET created_at = EXCLUDED.created_at,
		    seq = nextval(pg_get_serial_sequence('favorites', 'seq'))`

	if _, err := s.db.ExecContext(ctx, query, verseID, createdAt.UTC()); err != nil {
		return fmt.Errorf("upsert favorite %s: %w", verseID, err)
	}
	return nil
}

// DeleteFavorite removes the favorite for verseID. Missing rows are not an error.
func (s *Store) DeleteFavorite(ctx context.Context, verseID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE verse_id = $1`, verseID); err != nil {
		return fmt.Errorf("delete favorite %s: %w", verseID, err)
	}
	return nil
}

// GetFavorite returns the favorite for verseID or store.ErrNotFound.
func (s *Store) GetFavorite(ctx context.Context, verseID string) (*domain.Favorite, error) {
	f := &domain.Favorite{}
	err := s.db.QueryRowContext(ctx,
		`SELECT verse_id, created_at FROM favorites WHERE verse_id = $1`, verseID).
		Scan(&f.VerseID, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get favorite %s: %w", verseID, err)
	}
	return f, nil
}

// ListFavorites returns every favorite in persisted order.
func (s *Store) ListFavorites(ctx context.Context) ([]domain.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT verse_id, created_at FROM favorites ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var favorites []domain.Favorite
	for rows.Next() {
		var f domain.Favorite
		if err := rows.Scan(&f.VerseID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}
