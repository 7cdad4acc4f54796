package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

// PromoService manages promo codes for admins. Redemption lives in
// QuotaService.
type PromoService interface {
	Create(ctx context.Context, in *transfer.PromoCreation) (*models.PromoCode, error)
	List(ctx context.Context) ([]*models.PromoCode, error)
	SetActive(ctx context.Context, code string, active bool) error
}

type promoService struct {
	p        repository.PromoRepository
	validate *validator.Validate
}

func NewPromoService(p repository.PromoRepository) PromoService {
	return &promoService{p: p, validate: validator.New()}
}

func (s *promoService) Create(ctx context.Context, in *transfer.PromoCreation) (*models.PromoCode, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	promo := &models.PromoCode{
		Code:               strings.TrimSpace(in.Code),
		GenerationsAwarded: in.Generations,
		TotalUses:          in.TotalUses,
		UsesLeft:           in.TotalUses,
		IsActive:           true,
	}
	if err := s.p.Create(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

func (s *promoService) List(ctx context.Context) ([]*models.PromoCode, error) {
	return s.p.List(ctx)
}

func (s *promoService) SetActive(ctx context.Context, code string, active bool) error {
	err := s.p.SetActive(ctx, code, active)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPromoNotFound
	}
	return err
}
