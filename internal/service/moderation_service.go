package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Publisher delivers a finished post to a channel.
type Publisher interface {
	PublishPost(ctx context.Context, channelID int64, post models.Post) error
}

type ModerationService interface {
	Enqueue(ctx context.Context, ownerID, channelID int64, sourceURL string, post models.Post) (string, error)
	Resolve(ctx context.Context, id string, approve bool) (*models.PendingModeration, models.Resolution, error)
	ResolveFor(ctx context.Context, ownerID int64, id string, approve bool) (*models.PendingModeration, models.Resolution, error)
	Get(ctx context.Context, id string) (*models.PendingModeration, error)
	Cancel(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, ttl time.Duration) (int64, error)
}

type moderationService struct {
	m     repository.ModerationRepository
	dedup DedupService
	pub   Publisher
}

func NewModerationService(m repository.ModerationRepository, dedup DedupService, pub Publisher) ModerationService {
	return &moderationService{m: m, dedup: dedup, pub: pub}
}

func (s *moderationService) Enqueue(ctx context.Context, ownerID, channelID int64, sourceURL string, post models.Post) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generating moderation id failed: %w", err)
	}

	err = s.m.Create(ctx, &models.PendingModeration{
		ID:         id,
		ChannelID:  channelID,
		OwnerID:    ownerID,
		ArticleURL: sourceURL,
		PostText:   post.Text,
		ImageURL:   post.ImageURL,
	})
	if err != nil {
		return "", fmt.Errorf("saving moderation item failed: %w", err)
	}
	return id, nil
}

func (s *moderationService) Get(ctx context.Context, id string) (*models.PendingModeration, error) {
	p, err := s.m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrModerationNotFound
	}
	return p, nil
}

// Cancel drops an item whose approval message never reached the owner.
func (s *moderationService) Cancel(ctx context.Context, id string) error {
	return s.m.Delete(ctx, id)
}

// Resolve claims the item first so a second click cannot publish twice.
// A failed publish puts the item back so the owner can retry.
func (s *moderationService) Resolve(ctx context.Context, id string, approve bool) (*models.PendingModeration, models.Resolution, error) {
	p, err := s.m.Claim(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("claiming moderation item failed: %w", err)
	}
	if p == nil {
		return nil, "", ErrModerationNotFound
	}

	if !approve {
		slog.Info("moderation item discarded", "moderation_id", id, "channel_id", p.ChannelID)
		return p, models.ResolutionDiscarded, nil
	}

	post := models.Post{Text: p.PostText, ImageURL: p.ImageURL}
	if err := s.pub.PublishPost(ctx, p.ChannelID, post); err != nil {
		if rerr := s.m.Restore(ctx, p); rerr != nil {
			slog.Error("restoring moderation item failed", "moderation_id", id, "error", rerr)
		}
		return p, "", fmt.Errorf("publishing approved post failed: %w", err)
	}

	if err := s.dedup.Record(ctx, p.ChannelID, p.ArticleURL); err != nil {
		// The post is already live; the missing fingerprint only weakens dedup.
		slog.Error("recording fingerprint after approval failed", "moderation_id", id, "error", err)
	}

	slog.Info("moderation item published", "moderation_id", id, "channel_id", p.ChannelID)
	return p, models.ResolutionPublished, nil
}

// ResolveFor is Resolve restricted to the item's owner. Both the Telegram
// buttons and the HTTP API go through it.
func (s *moderationService) ResolveFor(ctx context.Context, ownerID int64, id string, approve bool) (*models.PendingModeration, models.Resolution, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if p.OwnerID != ownerID {
		return nil, "", ErrForbidden
	}
	return s.Resolve(ctx, id, approve)
}

func (s *moderationService) PurgeExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	return s.m.DeleteOlderThan(ctx, time.Now().Add(-ttl))
}
