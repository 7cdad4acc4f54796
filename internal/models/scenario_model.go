package models

import (
	"fmt"
	"time"
)

type MediaStrategy string

const (
	MediaTextOnly      MediaStrategy = "text_only"
	MediaTextPlusMedia MediaStrategy = "text_plus_media"
)

type PostingMode string

const (
	PostingDirect     PostingMode = "direct"
	PostingModeration PostingMode = "moderation"
)

type Scenario struct {
	ID            int64         `db:"id" json:"id"`
	OwnerID       int64         `db:"owner_id" json:"owner_id"`
	ChannelID     int64         `db:"channel_id" json:"channel_id"`
	Name          string        `db:"name" json:"name"`
	Theme         string        `db:"theme" json:"theme"`
	Keywords      []string      `db:"keywords" json:"keywords"`
	Sources       []string      `db:"sources" json:"sources"`
	MediaStrategy MediaStrategy `db:"media_strategy" json:"media_strategy"`
	PostingMode   PostingMode   `db:"posting_mode" json:"posting_mode"`
	RunTimes      []string      `db:"run_times" json:"run_times"`
	Timezone      string        `db:"timezone" json:"timezone"`
	IsActive      bool          `db:"is_active" json:"is_active"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Trigger is one persisted daily firing of a scenario.
type Trigger struct {
	ID         string    `db:"id" json:"id"`
	ScenarioID int64     `db:"scenario_id" json:"scenario_id"`
	Hour       int       `db:"hour" json:"hour"`
	Minute     int       `db:"minute" json:"minute"`
	Timezone   string    `db:"timezone" json:"timezone"`
	CronSpec   string    `db:"cron_spec" json:"cron_spec"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ScheduledTrigger is a stored trigger with its next fire time. NextRun is
// nil when the trigger is not registered in this process.
type ScheduledTrigger struct {
	*Trigger
	NextRun *time.Time `json:"next_run,omitempty"`
}

func TriggerID(scenarioID int64, hour, minute int) string {
	return fmt.Sprintf("scenario_%d_%d_%d", scenarioID, hour, minute)
}

const TriggerManual = "manual"

// RunRequest is the payload carried from a trigger to the pipeline.
type RunRequest struct {
	ScenarioID  int64     `json:"scenario_id"`
	UserID      int64     `json:"user_id"`
	ChannelID   int64     `json:"channel_id"`
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requested_at"`
}
