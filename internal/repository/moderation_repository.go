package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
)

type ModerationRepository interface {
	Create(ctx context.Context, p *models.PendingModeration) error
	GetByID(ctx context.Context, id string) (*models.PendingModeration, error)
	Claim(ctx context.Context, id string) (*models.PendingModeration, error)
	Restore(ctx context.Context, p *models.PendingModeration) error
	Delete(ctx context.Context, id string) error
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type moderationRepository struct {
	db *sql.DB
}

func NewModerationRepository(db *sql.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

const moderationColumns = `moderation_id, channel_id, owner_id, article_url, post_text, image_url, created_at`

func scanModeration(row rowScanner) (*models.PendingModeration, error) {
	var p models.PendingModeration
	if err := row.Scan(&p.ID, &p.ChannelID, &p.OwnerID, &p.ArticleURL, &p.PostText, &p.ImageURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *moderationRepository) Create(ctx context.Context, p *models.PendingModeration) error {
	query := `
		INSERT INTO pending_moderation_posts (moderation_id, channel_id, owner_id, article_url, post_text, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.ChannelID, p.OwnerID, p.ArticleURL, p.PostText, p.ImageURL)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *moderationRepository) GetByID(ctx context.Context, id string) (*models.PendingModeration, error) {
	query := `SELECT ` + moderationColumns + ` FROM pending_moderation_posts WHERE moderation_id = $1`
	p, err := scanModeration(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return p, nil
}

// Claim deletes the row and returns it. Only one concurrent caller can win;
// the others get nil.
func (r *moderationRepository) Claim(ctx context.Context, id string) (*models.PendingModeration, error) {
	query := `DELETE FROM pending_moderation_posts WHERE moderation_id = $1 RETURNING ` + moderationColumns
	p, err := scanModeration(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return p, nil
}

func (r *moderationRepository) Restore(ctx context.Context, p *models.PendingModeration) error {
	query := `
		INSERT INTO pending_moderation_posts (moderation_id, channel_id, owner_id, article_url, post_text, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (moderation_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.ChannelID, p.OwnerID, p.ArticleURL, p.PostText, p.ImageURL, p.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *moderationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_moderation_posts WHERE moderation_id = $1`, id); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *moderationRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_moderation_posts WHERE created_at < $1`, before)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}
