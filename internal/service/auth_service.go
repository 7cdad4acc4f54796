package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/maheshrc27/autoposter/pkg/utils"
)

// AuthService issues API tokens for Telegram users. Users have no password;
// the operator hands out tokens from the admin routes.
type AuthService interface {
	IssueToken(ctx context.Context, userID int64) (token string, expiresAt time.Time, err error)
}

type authService struct {
	secretKey string
	ttl       time.Duration
	quota     QuotaService
}

func NewAuthService(secretKey string, ttl time.Duration, quota QuotaService) AuthService {
	return &authService{
		secretKey: secretKey,
		ttl:       ttl,
		quota:     quota,
	}
}

func (s *authService) IssueToken(ctx context.Context, userID int64) (string, time.Time, error) {
	if userID <= 0 {
		return "", time.Time{}, errors.New("user id must be positive")
	}

	// Makes sure the user starts with the default generations.
	if _, err := s.quota.Balance(ctx, userID); err != nil {
		return "", time.Time{}, err
	}

	expiresAt := time.Now().Add(s.ttl)
	token, err := utils.GenerateToken(s.secretKey, strconv.FormatInt(userID, 10), s.ttl)
	if err != nil {
		return "", time.Time{}, err
	}

	slog.Info("api token issued", "user_id", userID, "expires_at", expiresAt)
	return token, expiresAt, nil
}
