package page

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kailas-cloud/linkrank/internal/db"
	"github.com/kailas-cloud/linkrank/internal/domain"
	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
)

// sqlStore is the consumer interface for the relational page store (ISP).
type sqlStore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLRepo stores pages in the pages table.
type SQLRepo struct {
	db sqlStore
}

// NewSQLRepo creates a SQL-backed page repository.
func NewSQLRepo(s sqlStore) *SQLRepo {
	return &SQLRepo{db: s}
}

const (
	selectColumns = `SELECT url, title, content, keywords, fetched_at FROM pages`

	upsertPage = `INSERT INTO pages (url, title, content, keywords, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (url)
		DO UPDATE SET title = EXCLUDED.title,
		              content = EXCLUDED.content,
		              keywords = EXCLUDED.keywords,
		              fetched_at = EXCLUDED.fetched_at`
)

// Get returns the cached page for url.
func (r *SQLRepo) Get(ctx context.Context, url string) (dompage.Page, error) {
	var (
		u, title, content, keywords string
		fetchedAt                   int64
	)
	err := r.db.QueryRowContext(ctx, selectColumns+` WHERE url = ?`, url).
		Scan(&u, &title, &content, &keywords, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return dompage.Page{}, domain.ErrPageNotFound
	}
	if err != nil {
		return dompage.Page{}, fmt.Errorf("get page %s: %w", url, &db.Error{Op: db.OpSelect, Err: err})
	}
	return dompage.Reconstruct(u, title, content, dompage.SplitKeywords(keywords), fromMillis(fetchedAt)), nil
}

// Upsert writes p by URL, last write wins.
func (r *SQLRepo) Upsert(ctx context.Context, p dompage.Page) error {
	_, err := r.db.ExecContext(ctx, upsertPage,
		p.URL(), p.Title(), p.Content(), p.KeywordString(), toMillis(p.FetchedAt()))
	if err != nil {
		return fmt.Errorf("upsert page %s: %w", p.URL(), &db.Error{Op: db.OpUpsert, Err: err})
	}
	return nil
}

// List returns every stored page ordered by URL.
func (r *SQLRepo) List(ctx context.Context) ([]dompage.Page, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", &db.Error{Op: db.OpSelect, Err: err})
	}
	defer rows.Close()

	pages := []dompage.Page{}
	for rows.Next() {
		var (
			u, title, content, keywords string
			fetchedAt                   int64
		)
		if err := rows.Scan(&u, &title, &content, &keywords, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, dompage.Reconstruct(u, title, content, dompage.SplitKeywords(keywords), fromMillis(fetchedAt)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

// Delete removes one page.
func (r *SQLRepo) Delete(ctx context.Context, url string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("delete page %s: %w", url, &db.Error{Op: db.OpDelete, Err: err})
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete page %s: %w", url, err)
	}
	if n == 0 {
		return domain.ErrPageNotFound
	}
	return nil
}

// Purge removes every page and returns how many were removed.
func (r *SQLRepo) Purge(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pages`)
	if err != nil {
		return 0, fmt.Errorf("purge pages: %w", &db.Error{Op: db.OpDelete, Err: err})
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge pages: %w", err)
	}
	return n, nil
}

// Count returns the number of stored pages.
func (r *SQLRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pages: %w", &db.Error{Op: db.OpSelect, Err: err})
	}
	return n, nil
}
