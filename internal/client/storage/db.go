// Package storage opens the client's local SQLite database, applies the
// embedded goose migrations and hands out the repositories built on it.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophfeed/internal/client/migrations"
	"github.com/dmitrijs2005/gophfeed/internal/client/repositories/cookies"
	"github.com/dmitrijs2005/gophfeed/internal/client/repositories/metadata"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Cookies  cookies.Repository
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the database at dsn and migrates it.
// SQLite allows a single writer, so the pool is capped at one connection;
// this also keeps ":memory:" databases shared across calls.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Cookies:  cookies.NewSQLiteRepository(db),
	}, nil
}
