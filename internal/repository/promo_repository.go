package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/autoposter/internal/models"
)

type PromoRepository interface {
	Create(ctx context.Context, p *models.PromoCode) error
	List(ctx context.Context) ([]*models.PromoCode, error)
	SetActive(ctx context.Context, code string, active bool) error
	Redeem(ctx context.Context, code string, userID int64, initial int) (awarded, left int, err error)
}

type promoRepository struct {
	db *sql.DB
}

func NewPromoRepository(db *sql.DB) PromoRepository {
	return &promoRepository{db: db}
}

func (r *promoRepository) Create(ctx context.Context, p *models.PromoCode) error {
	query := `
		INSERT INTO promo_codes (code, generations_awarded, total_uses, uses_left, is_active)
		VALUES ($1, $2, $3, $3, TRUE)
	`
	if _, err := r.db.ExecContext(ctx, query, p.Code, p.GenerationsAwarded, p.TotalUses); err != nil {
		if isUniqueViolation(err) {
			return ErrPromoExists
		}
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *promoRepository) List(ctx context.Context) ([]*models.PromoCode, error) {
	query := `
		SELECT code, generations_awarded, total_uses, uses_left, is_active, created_at
		FROM promo_codes ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var codes []*models.PromoCode
	for rows.Next() {
		var p models.PromoCode
		if err := rows.Scan(&p.Code, &p.GenerationsAwarded, &p.TotalUses, &p.UsesLeft, &p.IsActive, &p.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		codes = append(codes, &p)
	}
	return codes, rows.Err()
}

func (r *promoRepository) SetActive(ctx context.Context, code string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE promo_codes SET is_active = $1 WHERE code = $2`, active, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectAffected(res)
}

// Redeem spends one use of the code and credits the user in one transaction.
// The use is taken with a conditional decrement, so the last use goes to
// exactly one caller.
func (r *promoRepository) Redeem(ctx context.Context, code string, userID int64, initial int) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin promo tx: %w", err)
	}
	defer tx.Rollback()

	var awarded int
	err = tx.QueryRowContext(ctx, `
		UPDATE promo_codes
		SET uses_left = uses_left - 1
		WHERE code = $1 AND is_active = TRUE AND uses_left > 0
		RETURNING generations_awarded
	`, code).Scan(&awarded)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, ErrPromoUnavailable
		}
		slog.Info(err.Error())
		return 0, 0, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO promo_redemptions (code, user_id) VALUES ($1, $2)`, code, userID); err != nil {
		if isUniqueViolation(err) {
			return 0, 0, ErrPromoRedeemed
		}
		slog.Info(err.Error())
		return 0, 0, err
	}

	var left int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO subscriptions (user_id, generations_left)
		VALUES ($1, $2 + $3)
		ON CONFLICT (user_id) DO UPDATE
		SET generations_left = subscriptions.generations_left + $3,
			updated_at = NOW()
		RETURNING generations_left
	`, userID, initial, awarded).Scan(&left)
	if err != nil {
		slog.Info(err.Error())
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit promo tx: %w", err)
	}
	return awarded, left, nil
}
