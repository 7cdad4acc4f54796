package service

import "errors"

var (
	ErrScenarioNotFound   = errors.New("scenario not found")
	ErrModerationNotFound = errors.New("moderation item not found or already resolved")
	ErrForbidden          = errors.New("resource belongs to another user")
	ErrInvalidAmount      = errors.New("top-up amount must be positive")
	ErrChannelNotFound    = errors.New("channel profile not found")
	ErrNotChannelAdmin    = errors.New("only a channel admin can register the channel")
	ErrBotCannotPost      = errors.New("bot must be a channel admin allowed to post messages")
	ErrPromoInvalid       = errors.New("promo code not found, inactive or used up")
	ErrPromoRedeemed      = errors.New("promo code already redeemed")
	ErrPromoNotFound      = errors.New("promo code not found")
)
