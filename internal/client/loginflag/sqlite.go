package loginflag

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophfeed/internal/client/repositories/cookies"
	"github.com/dmitrijs2005/gophfeed/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophfeed/internal/dbx"
)

// sqliteFlag keeps the flag in the local database and ties it to the
// persisted cookies: a logged-out client holds no refresh cookie on disk.
type sqliteFlag struct {
	Flag
	db *sql.DB
}

// NewSQLite returns a Flag stored in db. MarkLoggedOut also drops every
// persisted cookie, in the same transaction as the flag write.
func NewSQLite(db *sql.DB) Flag {
	return &sqliteFlag{Flag: New(metadata.NewSQLiteRepository(db)), db: db}
}

func (f *sqliteFlag) MarkLoggedOut(ctx context.Context) error {
	return dbx.WithTx(ctx, f.db, func(ctx context.Context, tx dbx.DBTX) error {
		if err := New(metadata.NewSQLiteRepository(tx)).MarkLoggedOut(ctx); err != nil {
			return err
		}
		if err := cookies.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return fmt.Errorf("drop persisted cookies: %w", err)
		}
		return nil
	})
}
