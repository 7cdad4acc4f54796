package models

import "time"

type PendingModeration struct {
	ID         string    `db:"moderation_id" json:"moderation_id"`
	ChannelID  int64     `db:"channel_id" json:"channel_id"`
	OwnerID    int64     `db:"owner_id" json:"owner_id"`
	ArticleURL string    `db:"article_url" json:"article_url"`
	PostText   string    `db:"post_text" json:"post_text"`
	ImageURL   string    `db:"image_url" json:"image_url"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Resolution string

const (
	ResolutionPublished Resolution = "published"
	ResolutionDiscarded Resolution = "discarded"
)
