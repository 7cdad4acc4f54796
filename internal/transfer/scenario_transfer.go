package transfer

import "github.com/maheshrc27/autoposter/internal/models"

type ScenarioCreation struct {
	ChannelID     int64                `json:"channel_id" validate:"required"`
	Name          string               `json:"name" validate:"required,max=64"`
	Theme         string               `json:"theme" validate:"required,max=500"`
	Keywords      []string             `json:"keywords" validate:"max=20,dive,required,max=64"`
	Sources       []string             `json:"sources" validate:"max=10,dive,required,max=64"`
	MediaStrategy models.MediaStrategy `json:"media_strategy" validate:"required,oneof=text_only text_plus_media"`
	PostingMode   models.PostingMode   `json:"posting_mode" validate:"required,oneof=direct moderation"`
	RunTimes      []string             `json:"run_times" validate:"required,min=1,max=24,dive,required"`
	Timezone      string               `json:"timezone"`
}

type ScenarioUpdate struct {
	Name     *string  `json:"name" validate:"omitempty,min=1,max=64"`
	Theme    *string  `json:"theme" validate:"omitempty,min=1,max=500"`
	Keywords []string `json:"keywords" validate:"omitempty,max=20,dive,required,max=64"`
	Sources  []string `json:"sources" validate:"omitempty,max=10,dive,required,max=64"`
	RunTimes []string `json:"run_times" validate:"omitempty,max=24,dive,required"`
	Timezone *string  `json:"timezone"`
}

type ScenarioInfo struct {
	Scenario *models.Scenario `json:"scenario"`
	Triggers []string         `json:"triggers"`
}

type ScenarioDetails struct {
	Scenario *models.Scenario          `json:"scenario"`
	Triggers []models.ScheduledTrigger `json:"triggers"`
}

type CreditTopUp struct {
	Amount int `json:"amount" validate:"required,gt=0,lte=10000"`
}

type ChannelProfile struct {
	Title               string `json:"title" validate:"max=255"`
	StylePassport       string `json:"style_passport" validate:"max=4000"`
	ActivityDescription string `json:"activity_description" validate:"max=2000"`
	GenerationLanguage  string `json:"generation_language" validate:"omitempty,min=2,max=8"`

	// SamplePosts generate the style passport when none is given.
	SamplePosts []string `json:"sample_posts" validate:"max=20,dive,required,max=4096"`
}

type PromoCreation struct {
	Code        string `json:"code" validate:"required,max=64"`
	Generations int    `json:"generations" validate:"required,gt=0,lte=10000"`
	TotalUses   int    `json:"total_uses" validate:"required,gt=0"`
}

type PromoRedemption struct {
	Code string `json:"code" validate:"required,max=64"`
}

type PromoStatus struct {
	IsActive bool `json:"is_active"`
}
