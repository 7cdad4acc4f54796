package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
)

type PublishedPostRepository interface {
	Exists(ctx context.Context, channelID int64, hash string) (bool, error)
	FilterPublished(ctx context.Context, channelID int64, hashes []string) (map[string]bool, error)
	Create(ctx context.Context, channelID int64, hash string) (bool, error)
}

type publishedPostRepository struct {
	db *sql.DB
}

func NewPublishedPostRepository(db *sql.DB) PublishedPostRepository {
	return &publishedPostRepository{db: db}
}

func (r *publishedPostRepository) Exists(ctx context.Context, channelID int64, hash string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM published_posts WHERE channel_id = $1 AND source_url_hash = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, channelID, hash).Scan(&exists); err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return exists, nil
}

// FilterPublished returns the subset of hashes already recorded for the channel.
func (r *publishedPostRepository) FilterPublished(ctx context.Context, channelID int64, hashes []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(hashes) == 0 {
		return found, nil
	}

	query := `SELECT source_url_hash FROM published_posts WHERE channel_id = $1 AND source_url_hash = ANY($2)`
	rows, err := r.db.QueryContext(ctx, query, channelID, pq.Array(hashes))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		found[h] = true
	}
	return found, rows.Err()
}

// Create reports whether a new row was written; a repeat insert is not an error.
func (r *publishedPostRepository) Create(ctx context.Context, channelID int64, hash string) (bool, error) {
	query := `
		INSERT INTO published_posts (channel_id, source_url_hash)
		VALUES ($1, $2)
		ON CONFLICT (channel_id, source_url_hash) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, channelID, hash)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
