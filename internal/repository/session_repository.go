package repository

import (
	"context"
	"database/sql"
	"log/slog"
)

type SessionRepository interface {
	Get(ctx context.Context, botID int64) (string, error)
	Save(ctx context.Context, botID int64, data string) error
}

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Get(ctx context.Context, botID int64) (string, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM bot_sessions WHERE bot_id = $1`, botID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		slog.Info(err.Error())
		return "", err
	}
	return data, nil
}

func (r *sessionRepository) Save(ctx context.Context, botID int64, data string) error {
	query := `
		INSERT INTO bot_sessions (bot_id, data) VALUES ($1, $2)
		ON CONFLICT (bot_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, botID, data); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
