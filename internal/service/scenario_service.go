package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/scheduler"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

type ScenarioScheduler interface {
	Schedule(ctx context.Context, sc *models.Scenario) ([]string, error)
	Unschedule(ctx context.Context, sc *models.Scenario) error
	Triggers(ctx context.Context, scenarioID int64) ([]models.ScheduledTrigger, error)
}

type ScenarioService interface {
	Create(ctx context.Context, userID int64, in *transfer.ScenarioCreation) (*transfer.ScenarioInfo, error)
	Get(ctx context.Context, userID, id int64) (*models.Scenario, error)
	Details(ctx context.Context, userID, id int64) (*transfer.ScenarioDetails, error)
	ListByChannel(ctx context.Context, userID, channelID int64) ([]*models.Scenario, error)
	Update(ctx context.Context, userID, id int64, in *transfer.ScenarioUpdate) (*transfer.ScenarioInfo, error)
	RunNow(ctx context.Context, userID, id int64) error
	Pause(ctx context.Context, userID, id int64) error
	Resume(ctx context.Context, userID, id int64) (*transfer.ScenarioInfo, error)
	Delete(ctx context.Context, userID, id int64) error
}

type scenarioService struct {
	sr        repository.ScenarioRepository
	cr        repository.ChannelRepository
	sched     ScenarioScheduler
	dispatch  scheduler.Dispatcher
	validate  *validator.Validate
	defaultTZ string
}

func NewScenarioService(
	sr repository.ScenarioRepository,
	cr repository.ChannelRepository,
	sched ScenarioScheduler,
	dispatch scheduler.Dispatcher,
	defaultTZ string) ScenarioService {
	return &scenarioService{
		sr:        sr,
		cr:        cr,
		sched:     sched,
		dispatch:  dispatch,
		validate:  validator.New(),
		defaultTZ: defaultTZ,
	}
}

func (s *scenarioService) Create(ctx context.Context, userID int64, in *transfer.ScenarioCreation) (*transfer.ScenarioInfo, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	ch, err := s.cr.GetByID(ctx, in.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("loading channel failed: %w", err)
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}
	if ch.OwnerID != userID {
		return nil, ErrForbidden
	}

	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = s.defaultTZ
	}
	if _, err := scheduler.LoadLocation(tz, s.defaultTZ); err != nil {
		return nil, err
	}

	sc := &models.Scenario{
		OwnerID:       userID,
		ChannelID:     in.ChannelID,
		Name:          strings.TrimSpace(in.Name),
		Theme:         strings.TrimSpace(in.Theme),
		Keywords:      cleanList(in.Keywords),
		Sources:       cleanList(in.Sources),
		MediaStrategy: in.MediaStrategy,
		PostingMode:   in.PostingMode,
		RunTimes:      cleanList(in.RunTimes),
		Timezone:      tz,
		IsActive:      true,
	}

	id, err := s.sr.Create(ctx, sc)
	if err != nil {
		return nil, err
	}
	sc.ID = id

	triggers, err := s.sched.Schedule(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("scenario saved but scheduling failed: %w", err)
	}
	return &transfer.ScenarioInfo{Scenario: sc, Triggers: triggers}, nil
}

func (s *scenarioService) Get(ctx context.Context, userID, id int64) (*models.Scenario, error) {
	sc, err := s.sr.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading scenario failed: %w", err)
	}
	if sc == nil {
		return nil, ErrScenarioNotFound
	}
	if sc.OwnerID != userID {
		return nil, ErrForbidden
	}
	return sc, nil
}

func (s *scenarioService) Details(ctx context.Context, userID, id int64) (*transfer.ScenarioDetails, error) {
	sc, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	triggers, err := s.sched.Triggers(ctx, id)
	if err != nil {
		return nil, err
	}
	return &transfer.ScenarioDetails{Scenario: sc, Triggers: triggers}, nil
}

func (s *scenarioService) ListByChannel(ctx context.Context, userID, channelID int64) ([]*models.Scenario, error) {
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
	return s.sr.ListByChannel(ctx, channelID)
}

// Update applies the given edits and re-registers triggers, since the run
// times, time zone or captured scenario fields may have changed.
func (s *scenarioService) Update(ctx context.Context, userID, id int64, in *transfer.ScenarioUpdate) (*transfer.ScenarioInfo, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	sc, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		sc.Name = strings.TrimSpace(*in.Name)
	}
	if in.Theme != nil {
		sc.Theme = strings.TrimSpace(*in.Theme)
	}
	if in.Keywords != nil {
		sc.Keywords = cleanList(in.Keywords)
	}
	if in.Sources != nil {
		sc.Sources = cleanList(in.Sources)
	}
	if in.RunTimes != nil {
		sc.RunTimes = cleanList(in.RunTimes)
	}
	if in.Timezone != nil {
		if _, err := scheduler.LoadLocation(*in.Timezone, s.defaultTZ); err != nil {
			return nil, err
		}
		sc.Timezone = strings.TrimSpace(*in.Timezone)
	}

	if err := s.sr.Update(ctx, sc); err != nil {
		return nil, err
	}

	info := &transfer.ScenarioInfo{Scenario: sc}
	if sc.IsActive {
		info.Triggers, err = s.sched.Schedule(ctx, sc)
		if err != nil {
			return nil, fmt.Errorf("rescheduling failed: %w", err)
		}
	}
	return info, nil
}

// RunNow pushes a one-off run through the same queue as scheduled triggers.
func (s *scenarioService) RunNow(ctx context.Context, userID, id int64) error {
	sc, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	req := models.RunRequest{
		ScenarioID:  sc.ID,
		UserID:      sc.OwnerID,
		ChannelID:   sc.ChannelID,
		Trigger:     models.TriggerManual,
		RequestedAt: time.Now(),
	}
	if err := s.dispatch.Dispatch(ctx, req); err != nil {
		return fmt.Errorf("dispatching manual run failed: %w", err)
	}
	slog.Info("manual run requested", "scenario_id", sc.ID, "user_id", userID)
	return nil
}

func (s *scenarioService) Pause(ctx context.Context, userID, id int64) error {
	sc, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.sched.Unschedule(ctx, sc); err != nil {
		return err
	}
	return s.sr.SetActive(ctx, sc.ID, false)
}

func (s *scenarioService) Resume(ctx context.Context, userID, id int64) (*transfer.ScenarioInfo, error) {
	sc, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.sr.SetActive(ctx, sc.ID, true); err != nil {
		return nil, err
	}
	sc.IsActive = true

	triggers, err := s.sched.Schedule(ctx, sc)
	if err != nil {
		return nil, err
	}
	return &transfer.ScenarioInfo{Scenario: sc, Triggers: triggers}, nil
}

// Delete unschedules before removing the row so no trigger can fire for a
// scenario that no longer exists.
func (s *scenarioService) Delete(ctx context.Context, userID, id int64) error {
	sc, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.sched.Unschedule(ctx, sc); err != nil {
		return err
	}
	if err := s.sr.Delete(ctx, sc.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScenarioNotFound
		}
		return err
	}
	slog.Info("scenario deleted", "scenario_id", sc.ID, "user_id", userID)
	return nil
}
