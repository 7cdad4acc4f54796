package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/autoposter/internal/repository"
)

type QuotaService interface {
	HasQuota(ctx context.Context, userID int64) (bool, error)
	Charge(ctx context.Context, userID int64) error
	TopUp(ctx context.Context, userID int64, amount int) (int, error)
	Balance(ctx context.Context, userID int64) (int, error)
	Redeem(ctx context.Context, userID int64, code string) (awarded, left int, err error)
}

type quotaService struct {
	s       repository.SubscriptionRepository
	promos  repository.PromoRepository
	initial int
}

func NewQuotaService(s repository.SubscriptionRepository, promos repository.PromoRepository, initialGenerations int) QuotaService {
	return &quotaService{s: s, promos: promos, initial: initialGenerations}
}

// HasQuota creates the default balance on first sight, then reads it.
func (q *quotaService) HasQuota(ctx context.Context, userID int64) (bool, error) {
	left, err := q.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return left > 0, nil
}

func (q *quotaService) Balance(ctx context.Context, userID int64) (int, error) {
	if err := q.s.EnsureExists(ctx, userID, q.initial); err != nil {
		return 0, fmt.Errorf("ensuring quota row failed: %w", err)
	}
	left, err := q.s.GetGenerationsLeft(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("reading quota failed: %w", err)
	}
	return left, nil
}

// Charge never fails on an empty balance, it only logs.
func (q *quotaService) Charge(ctx context.Context, userID int64) error {
	charged, err := q.s.Decrement(ctx, userID)
	if err != nil {
		return fmt.Errorf("charging quota failed: %w", err)
	}
	if !charged {
		slog.Warn("quota already exhausted at charge time", "user_id", userID)
	}
	return nil
}

func (q *quotaService) TopUp(ctx context.Context, userID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	left, err := q.s.Add(ctx, userID, amount, q.initial)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("top-up failed: %w", err)
	}
	slog.Info("quota topped up", "user_id", userID, "amount", amount, "generations_left", left)
	return left, nil
}

// Redeem credits the generations of a promo code. Each user can redeem a
// code once.
func (q *quotaService) Redeem(ctx context.Context, userID int64, code string) (int, int, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, 0, ErrPromoInvalid
	}
	awarded, left, err := q.promos.Redeem(ctx, code, userID, q.initial)
	switch {
	case errors.Is(err, repository.ErrPromoUnavailable):
		return 0, 0, ErrPromoInvalid
	case errors.Is(err, repository.ErrPromoRedeemed):
		return 0, 0, ErrPromoRedeemed
	case err != nil:
		return 0, 0, fmt.Errorf("redeeming promo code failed: %w", err)
	}
	slog.Info("promo code redeemed", "user_id", userID, "code", code, "awarded", awarded, "generations_left", left)
	return awarded, left, nil
}
