package models

import "time"

// PromoCode grants generations to each user who redeems it, until its uses
// run out.
type PromoCode struct {
	Code               string    `db:"code" json:"code"`
	GenerationsAwarded int       `db:"generations_awarded" json:"generations_awarded"`
	TotalUses          int       `db:"total_uses" json:"total_uses"`
	UsesLeft           int       `db:"uses_left" json:"uses_left"`
	IsActive           bool      `db:"is_active" json:"is_active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
