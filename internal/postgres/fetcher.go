package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nestlogic/forum-sentinel/internal/domain"
)

// contentQuery joins a post with its author and containing thread. The join
// returns zero or one logical row per content id.
const contentQuery = `
	SELECT p.id, p.original, p.posted_on,
		u.id, u.username, u.slug, u.email, u.joined_from_ip,
		t.id, t.title, t.slug, t.started_on
	FROM misago_threads_post AS p
	LEFT JOIN misago_users_user AS u ON p.poster_id = u.id
	LEFT JOIN misago_threads_thread AS t ON p.thread_id = t.id
	WHERE p.id = $1
`

// Fetcher retrieves the denormalized content record for a content id.
type Fetcher struct {
	pool *pgxpool.Pool
}

// NewFetcher builds a content fetcher over the shared connection pool.
func NewFetcher(pool *pgxpool.Pool) *Fetcher {
	return &Fetcher{pool: pool}
}

// Fetch performs the single joined read. It returns domain.NotFoundError when
// no row matches and never retries internally.
func (f *Fetcher) Fetch(ctx context.Context, contentID int64) (domain.ContentRecord, error) {
	var rec domain.ContentRecord

	err := f.pool.QueryRow(ctx, contentQuery, contentID).Scan(
		&rec.ContentID,
		&rec.Message,
		&rec.PostedAt,
		&rec.AuthorID,
		&rec.AuthorUsername,
		&rec.AuthorSlug,
		&rec.AuthorEmail,
		&rec.AuthorIP,
		&rec.ThreadID,
		&rec.ThreadTitle,
		&rec.ThreadSlug,
		&rec.ThreadPostedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ContentRecord{}, &domain.NotFoundError{ContentID: contentID}
		}
		return domain.ContentRecord{}, fmt.Errorf("fetch content %d: %w", contentID, err)
	}

	return rec, nil
}
