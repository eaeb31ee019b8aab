// Package postgres implements history.Store backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/lots/internal/history"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements history.Store for a single user.
type Store struct {
	db     *sql.DB
	userID int64
	now    func() time.Time
}

// Compile-time check that Store implements history.Store.
var _ history.Store = (*Store)(nil)

// New opens a connection to the PostgreSQL database at the given URL, runs
// any pending migrations and returns the history of userID.
func New(databaseURL string, userID int64) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newStore(db, userID), nil
}

func newStore(db *sql.DB, userID int64) *Store {
	return &Store{db: db, userID: userID, now: time.Now}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Query(ctx context.Context, prefix string, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	return queryHistory(ctx, s.db, s.userID, prefix, limit)
}

func (s *Store) Insert(ctx context.Context, text string) (*history.Entry, error) {
	text = history.Normalize(text)
	if text == "" {
		return nil, fmt.Errorf("empty search text")
	}
	return queryInsert(ctx, s.db, s.userID, text, s.now().UTC())
}

func (s *Store) DeleteAll(ctx context.Context) error {
	return queryDeleteAll(ctx, s.db, s.userID)
}

func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	return queryDeleteByID(ctx, s.db, s.userID, id)
}
