package cookies

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/dmitrijs2005/gophfeed/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Cookie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value, path, expires_at, secure, http_only, same_site FROM cookies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cookies: %w", err)
	}
	defer rows.Close()

	var out []models.Cookie
	for rows.Next() {
		var (
			c        models.Cookie
			expires  sql.NullInt64
			sameSite int
		)
		if err := rows.Scan(&c.Name, &c.Value, &c.Path, &expires, &c.Secure, &c.HttpOnly, &sameSite); err != nil {
			return nil, fmt.Errorf("failed to scan cookie row: %w", err)
		}
		if expires.Valid {
			c.ExpiresAt = time.Unix(expires.Int64, 0)
		}
		c.SameSite = http.SameSite(sameSite)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cookie rows: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, c models.Cookie) error {
	var expires sql.NullInt64
	if !c.ExpiresAt.IsZero() {
		expires = sql.NullInt64{Int64: c.ExpiresAt.Unix(), Valid: true}
	}
	path := c.Path
	if path == "" {
		path = "/"
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cookies (name, value, path, expires_at, secure, http_only, same_site)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			path = excluded.path,
			expires_at = excluded.expires_at,
			secure = excluded.secure,
			http_only = excluded.http_only,
			same_site = excluded.same_site
	`, c.Name, c.Value, path, expires, c.Secure, c.HttpOnly, int(c.SameSite))
	if err != nil {
		return fmt.Errorf("failed to upsert cookie[%s]: %w", c.Name, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cookies WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete cookie[%s]: %w", name, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	return nil
}
