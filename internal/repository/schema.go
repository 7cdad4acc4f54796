package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrScenarioNameTaken = errors.New("scenario name already used in this channel")
	ErrNotFound          = errors.New("record not found")
	ErrChannelClaimed    = errors.New("channel is registered to another user")
	ErrPromoExists       = errors.New("promo code already exists")
	ErrPromoUnavailable  = errors.New("promo code unavailable")
	ErrPromoRedeemed     = errors.New("promo code already redeemed by this user")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		channel_id BIGINT PRIMARY KEY,
		owner_id BIGINT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		style_passport TEXT NOT NULL DEFAULT '',
		activity_description TEXT NOT NULL DEFAULT '',
		generation_language VARCHAR(16) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS scenarios (
		id BIGSERIAL PRIMARY KEY,
		owner_id BIGINT NOT NULL,
		channel_id BIGINT NOT NULL REFERENCES channels(channel_id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		theme TEXT NOT NULL DEFAULT '',
		keywords TEXT[] NOT NULL DEFAULT '{}',
		sources TEXT[] NOT NULL DEFAULT '{}',
		media_strategy VARCHAR(32) NOT NULL DEFAULT 'text_only',
		posting_mode VARCHAR(32) NOT NULL DEFAULT 'direct',
		run_times TEXT[] NOT NULL DEFAULT '{}',
		timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (channel_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		user_id BIGINT PRIMARY KEY,
		generations_left INTEGER NOT NULL DEFAULT 3 CHECK (generations_left >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS promo_codes (
		code VARCHAR(64) PRIMARY KEY,
		generations_awarded INTEGER NOT NULL CHECK (generations_awarded > 0),
		total_uses INTEGER NOT NULL,
		uses_left INTEGER NOT NULL CHECK (uses_left >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS promo_redemptions (
		code VARCHAR(64) NOT NULL REFERENCES promo_codes(code) ON DELETE CASCADE,
		user_id BIGINT NOT NULL,
		redeemed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (code, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS published_posts (
		id BIGSERIAL PRIMARY KEY,
		channel_id BIGINT NOT NULL,
		source_url_hash VARCHAR(64) NOT NULL,
		published_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (channel_id, source_url_hash)
	)`,
	`CREATE TABLE IF NOT EXISTS pending_moderation_posts (
		moderation_id VARCHAR(32) PRIMARY KEY,
		channel_id BIGINT NOT NULL,
		owner_id BIGINT NOT NULL,
		article_url TEXT NOT NULL,
		post_text TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS scenario_triggers (
		id VARCHAR(64) PRIMARY KEY,
		scenario_id BIGINT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
		hour SMALLINT NOT NULL,
		minute SMALLINT NOT NULL,
		timezone VARCHAR(64) NOT NULL,
		cron_spec VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS scenario_triggers_scenario_idx ON scenario_triggers (scenario_id)`,
	`CREATE TABLE IF NOT EXISTS bot_sessions (
		bot_id BIGINT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables the service needs if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
