package repository

import (
	"context"
	"database/sql"
	"log/slog"
)

// SubscriptionRepository stores the per-user generation balance. Every
// write is a single atomic statement so concurrent charges and top-ups
// never lose updates.
type SubscriptionRepository interface {
	EnsureExists(ctx context.Context, userID int64, initial int) error
	GetGenerationsLeft(ctx context.Context, userID int64) (int, error)
	Decrement(ctx context.Context, userID int64) (bool, error)
	Add(ctx context.Context, userID int64, amount int, initial int) (int, error)
}

type subscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) EnsureExists(ctx context.Context, userID int64, initial int) error {
	query := `
		INSERT INTO subscriptions (user_id, generations_left)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, initial); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *subscriptionRepository) GetGenerationsLeft(ctx context.Context, userID int64) (int, error) {
	var left int
	err := r.db.QueryRowContext(ctx, `SELECT generations_left FROM subscriptions WHERE user_id = $1`, userID).Scan(&left)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		slog.Info(err.Error())
		return 0, err
	}
	return left, nil
}

// Decrement reports false when the balance was already zero.
func (r *subscriptionRepository) Decrement(ctx context.Context, userID int64) (bool, error) {
	query := `
		UPDATE subscriptions
		SET generations_left = generations_left - 1,
			updated_at = NOW()
		WHERE user_id = $1 AND generations_left > 0
	`
	res, err := r.db.ExecContext(ctx, query, userID)
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

func (r *subscriptionRepository) Add(ctx context.Context, userID int64, amount int, initial int) (int, error) {
	query := `
		INSERT INTO subscriptions (user_id, generations_left)
		VALUES ($1, $2 + $3)
		ON CONFLICT (user_id) DO UPDATE
		SET generations_left = subscriptions.generations_left + $3,
			updated_at = NOW()
		RETURNING generations_left
	`
	var left int
	if err := r.db.QueryRowContext(ctx, query, userID, initial, amount).Scan(&left); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return left, nil
}
