package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

// ChannelRights checks Telegram permissions for a channel.
type ChannelRights interface {
	ChannelRights(ctx context.Context, channelID, userID int64) (userIsAdmin, botCanPost bool, err error)
}

type PassportWriter interface {
	StylePassport(ctx context.Context, samples []string, language string) (string, error)
}

type ChannelService interface {
	GetProfile(ctx context.Context, userID, channelID int64) (*models.Channel, error)
	SaveProfile(ctx context.Context, userID, channelID int64, in *transfer.ChannelProfile) (*models.Channel, error)
}

type channelService struct {
	cr              repository.ChannelRepository
	rights          ChannelRights
	passports       PassportWriter
	validate        *validator.Validate
	defaultLanguage string
}

func NewChannelService(
	cr repository.ChannelRepository,
	rights ChannelRights,
	passports PassportWriter,
	defaultLanguage string) ChannelService {
	return &channelService{
		cr:              cr,
		rights:          rights,
		passports:       passports,
		validate:        validator.New(),
		defaultLanguage: defaultLanguage,
	}
}

func (s *channelService) GetProfile(ctx context.Context, userID, channelID int64) (*models.Channel, error) {
	ch, err := s.cr.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}
	if ch.OwnerID != userID {
		return nil, ErrForbidden
	}
	return ch, nil
}

// SaveProfile creates the channel profile on first use, which requires the
// caller to administer the channel. A channel already claimed by another
// user cannot be taken over.
func (s *channelService) SaveProfile(ctx context.Context, userID, channelID int64, in *transfer.ChannelProfile) (*models.Channel, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.cr.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.OwnerID != userID {
		return nil, ErrForbidden
	}
	if existing == nil {
		if err := s.checkRights(ctx, channelID, userID); err != nil {
			return nil, err
		}
	}

	lang := strings.TrimSpace(in.GenerationLanguage)
	if lang == "" {
		lang = s.defaultLanguage
	}

	passport := strings.TrimSpace(in.StylePassport)
	if samples := cleanList(in.SamplePosts); passport == "" && len(samples) > 0 {
		passport, err = s.passports.StylePassport(ctx, samples, lang)
		if err != nil {
			return nil, fmt.Errorf("generating style passport failed: %w", err)
		}
		slog.Info("style passport generated", "channel_id", channelID, "samples", len(samples))
	}

	ch := &models.Channel{
		ChannelID:           channelID,
		OwnerID:             userID,
		Title:               strings.TrimSpace(in.Title),
		StylePassport:       passport,
		ActivityDescription: strings.TrimSpace(in.ActivityDescription),
		GenerationLanguage:  lang,
	}
	if existing != nil {
		ch.CreatedAt = existing.CreatedAt
	}

	if err := s.cr.Upsert(ctx, ch); err != nil {
		if errors.Is(err, repository.ErrChannelClaimed) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	slog.Info("channel profile saved", "channel_id", channelID, "user_id", userID)
	return ch, nil
}

func (s *channelService) checkRights(ctx context.Context, channelID, userID int64) error {
	userIsAdmin, botCanPost, err := s.rights.ChannelRights(ctx, channelID, userID)
	if err != nil {
		return fmt.Errorf("checking channel rights failed: %w", err)
	}
	if !userIsAdmin {
		return ErrNotChannelAdmin
	}
	if !botCanPost {
		return ErrBotCannotPost
	}
	return nil
}
