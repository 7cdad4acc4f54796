package models

import "time"

// Channel carries the style profile used when drafting posts.
type Channel struct {
	ChannelID           int64     `db:"channel_id" json:"channel_id"`
	OwnerID             int64     `db:"owner_id" json:"owner_id"`
	Title               string    `db:"title" json:"title"`
	StylePassport       string    `db:"style_passport" json:"style_passport"`
	ActivityDescription string    `db:"activity_description" json:"activity_description"`
	GenerationLanguage  string    `db:"generation_language" json:"generation_language"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}
