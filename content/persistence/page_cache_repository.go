package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/dfryer1193/esatsite/shared/db"
)

var _ domain.PageCache = (*SQLitePageCache)(nil)

var errInvalidPage = errors.New("cached page must have a key")

// SQLitePageCache implements domain.PageCache on the page_cache tables so
// rendered pages survive restarts. Every Put drops expired rows and then the
// oldest rows beyond maxPages.
type SQLitePageCache struct {
	db       *sql.DB
	maxPages int
	now      func() time.Time
}

func NewSQLitePageCache(conn *sql.DB, maxPages int) *SQLitePageCache {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	return &SQLitePageCache{
		db:       conn,
		maxPages: maxPages,
		now:      time.Now,
	}
}

const getPageQuery = `
	SELECT cache_key, path, status, content_type, body, created_at, expires_at
	FROM page_cache
	WHERE cache_key = ?
`

const getPageTagsQuery = `
	SELECT tag FROM page_cache_tags WHERE cache_key = ? ORDER BY tag
`

func (r *SQLitePageCache) Get(ctx context.Context, key string) (*domain.CachedPage, error) {
	var row pageRow
	err := r.db.QueryRowContext(ctx, getPageQuery, key).Scan(
		&row.Key,
		&row.Path,
		&row.Status,
		&row.ContentType,
		&row.Body,
		&row.CreatedAt,
		&row.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached page: %w", err)
	}

	page := row.toDomain()
	if page.Expired(r.now()) {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM page_cache WHERE cache_key = ?", key); err != nil {
			return nil, fmt.Errorf("failed to evict expired page: %w", err)
		}
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, getPageTagsQuery, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get cached page tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		page.Tags = append(page.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}

	return page, nil
}

const upsertPageQuery = `
	INSERT INTO page_cache (cache_key, path, status, content_type, body, created_at, expires_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(cache_key) DO UPDATE SET
		path = excluded.path,
		status = excluded.status,
		content_type = excluded.content_type,
		body = excluded.body,
		created_at = excluded.created_at,
		expires_at = excluded.expires_at
`

const sweepExpiredQuery = `
	DELETE FROM page_cache
	WHERE expires_at IS NOT NULL AND expires_at <= ?
`

const trimPagesQuery = `
	DELETE FROM page_cache
	WHERE cache_key IN (
		SELECT cache_key FROM page_cache
		ORDER BY created_at DESC
		LIMIT -1 OFFSET ?
	)
`

// Put stores the page and replaces its tag set in one transaction.
func (r *SQLitePageCache) Put(ctx context.Context, page *domain.CachedPage) error {
	if page == nil || page.Key == "" {
		return errInvalidPage
	}

	createdAt := page.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	var expiresAt any
	if !page.ExpiresAt.IsZero() {
		expiresAt = page.ExpiresAt.UTC()
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		_, err := executor.ExecContext(txCtx, upsertPageQuery,
			page.Key,
			page.Path,
			page.Status,
			page.ContentType,
			page.Body,
			createdAt.UTC(),
			expiresAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert cached page: %w", err)
		}

		if _, err := executor.ExecContext(txCtx, "DELETE FROM page_cache_tags WHERE cache_key = ?", page.Key); err != nil {
			return fmt.Errorf("failed to clear cached page tags: %w", err)
		}

		for _, tag := range page.Tags {
			_, err := executor.ExecContext(txCtx,
				"INSERT OR IGNORE INTO page_cache_tags (cache_key, tag) VALUES (?, ?)",
				page.Key,
				tag,
			)
			if err != nil {
				return fmt.Errorf("failed to insert cached page tag: %w", err)
			}
		}

		if _, err := executor.ExecContext(txCtx, sweepExpiredQuery, r.now().UTC()); err != nil {
			return fmt.Errorf("failed to sweep expired pages: %w", err)
		}
		if _, err := executor.ExecContext(txCtx, trimPagesQuery, r.maxPages); err != nil {
			return fmt.Errorf("failed to trim page cache: %w", err)
		}

		return nil
	})
}

// Len returns the number of stored pages.
func (r *SQLitePageCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM page_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cached pages: %w", err)
	}
	return n, nil
}

const deleteLayoutQuery = `
	DELETE FROM page_cache
	WHERE path = ? OR path LIKE ? ESCAPE '\'
`

func (r *SQLitePageCache) InvalidatePath(ctx context.Context, path string, scope domain.CacheScope) (int, error) {
	var (
		res sql.Result
		err error
	)

	switch scope {
	case domain.ScopeLayout:
		res, err = r.db.ExecContext(ctx, deleteLayoutQuery, path, escapeLike(domain.LayoutPrefix(path))+"%")
	default:
		res, err = r.db.ExecContext(ctx, "DELETE FROM page_cache WHERE path = ?", path)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate path %q: %w", path, err)
	}

	return rowsAffected(res)
}

const deleteTagQuery = `
	DELETE FROM page_cache
	WHERE cache_key IN (SELECT cache_key FROM page_cache_tags WHERE tag = ?)
`

func (r *SQLitePageCache) InvalidateTag(ctx context.Context, tag string) (int, error) {
	res, err := r.db.ExecContext(ctx, deleteTagQuery, tag)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate tag %q: %w", tag, err)
	}

	return rowsAffected(res)
}

func (r *SQLitePageCache) Purge(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM page_cache"); err != nil {
		return fmt.Errorf("failed to purge page cache: %w", err)
	}
	return nil
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// pageRow is the scan target for page_cache rows.
type pageRow struct {
	Key         string
	Path        string
	Status      int
	ContentType string
	Body        []byte
	CreatedAt   sql.NullTime
	ExpiresAt   sql.NullTime
}

func (pr *pageRow) toDomain() *domain.CachedPage {
	page := &domain.CachedPage{
		Key:         pr.Key,
		Path:        pr.Path,
		Status:      pr.Status,
		ContentType: pr.ContentType,
		Body:        pr.Body,
	}

	if pr.CreatedAt.Valid {
		page.CreatedAt = pr.CreatedAt.Time
	}
	if pr.ExpiresAt.Valid {
		page.ExpiresAt = pr.ExpiresAt.Time
	}

	return page
}
