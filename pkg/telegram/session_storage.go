package telegram

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gotd/td/session"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/pkg/utils"
)

// DBSessionStorage keeps the MTProto session in bot_sessions, encrypted
// with the service secret.
type DBSessionStorage struct {
	Repo  repository.SessionRepository
	BotID int64
	Key   []byte
}

func (s *DBSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	if s == nil || s.Repo == nil {
		return nil, session.ErrNotFound
	}

	data, err := s.Repo.Get(ctx, s.BotID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		slog.Error("loading telegram session failed", "error", err)
		return nil, err
	}

	plain, err := utils.OpenSession(data, s.Key)
	if err != nil {
		// A session written with another key is useless; start fresh.
		slog.Warn("telegram session cannot be decrypted, re-authorizing", "error", err)
		return nil, session.ErrNotFound
	}
	return plain, nil
}

func (s *DBSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	if s == nil || s.Repo == nil {
		return session.ErrNotFound
	}

	enc, err := utils.SealSession(data, s.Key)
	if err != nil {
		return err
	}
	if err := s.Repo.Save(ctx, s.BotID, enc); err != nil {
		slog.Error("saving telegram session failed", "error", err)
		return err
	}
	return nil
}
