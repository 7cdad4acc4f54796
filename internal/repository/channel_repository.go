package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/autoposter/internal/models"
)

type ChannelRepository interface {
	GetByID(ctx context.Context, channelID int64) (*models.Channel, error)
	Upsert(ctx context.Context, ch *models.Channel) error
}

type channelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) GetByID(ctx context.Context, channelID int64) (*models.Channel, error) {
	query := `
		SELECT channel_id, owner_id, title, style_passport, activity_description, generation_language, created_at
		FROM channels WHERE channel_id = $1
	`
	var ch models.Channel
	err := r.db.QueryRowContext(ctx, query, channelID).Scan(&ch.ChannelID, &ch.OwnerID, &ch.Title,
		&ch.StylePassport, &ch.ActivityDescription, &ch.GenerationLanguage, &ch.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &ch, nil
}

// Upsert creates the channel or updates it for its current owner. A row owned
// by someone else is left untouched and ErrChannelClaimed is returned.
func (r *channelRepository) Upsert(ctx context.Context, ch *models.Channel) error {
	query := `
		INSERT INTO channels (channel_id, owner_id, title, style_passport, activity_description, generation_language)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (channel_id) DO UPDATE
		SET title = EXCLUDED.title,
			style_passport = EXCLUDED.style_passport,
			activity_description = EXCLUDED.activity_description,
			generation_language = EXCLUDED.generation_language
		WHERE channels.owner_id = EXCLUDED.owner_id
	`
	res, err := r.db.ExecContext(ctx, query, ch.ChannelID, ch.OwnerID, ch.Title, ch.StylePassport,
		ch.ActivityDescription, ch.GenerationLanguage)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrChannelClaimed
	}
	return nil
}
