package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/robfig/cron/v3"
)

// Dispatcher hands a run request to the job queue. Firing a trigger never
// runs the pipeline inline.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.RunRequest) error
}

type Options struct {
	MinRunInterval  time.Duration
	DefaultTimezone string
	DispatchTimeout time.Duration
}

type Scheduler struct {
	cron       *cron.Cron
	triggers   repository.TriggerRepository
	scenarios  repository.ScenarioRepository
	dispatcher Dispatcher
	opts       Options

	mu         sync.Mutex
	entries    map[string]cron.EntryID
	byScenario map[int64]map[string]bool
}

func New(triggers repository.TriggerRepository, scenarios repository.ScenarioRepository, dispatcher Dispatcher, opts Options) *Scheduler {
	if opts.DispatchTimeout == 0 {
		opts.DispatchTimeout = 30 * time.Second
	}
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		triggers:   triggers,
		scenarios:  scenarios,
		dispatcher: dispatcher,
		opts:       opts,
		entries:    make(map[string]cron.EntryID),
		byScenario: make(map[int64]map[string]bool),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts firing and returns a context that is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Every registers a periodic maintenance job, such as moderation cleanup.
func (s *Scheduler) Every(spec string, fn func()) error {
	_, err := s.cron.AddFunc(spec, fn)
	return err
}

// Schedule registers one daily trigger per valid run time and persists them.
// Re-scheduling an unchanged scenario yields the same trigger ids.
func (s *Scheduler) Schedule(ctx context.Context, sc *models.Scenario) ([]string, error) {
	loc, err := LoadLocation(sc.Timezone, s.opts.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("scenario %d: %w", sc.ID, err)
	}

	planned := planRunTimes(sc.ID, sc.RunTimes, s.opts.MinRunInterval)
	triggers := make([]*models.Trigger, 0, len(planned))
	for _, rt := range planned {
		triggers = append(triggers, &models.Trigger{
			ID:         models.TriggerID(sc.ID, rt.Hour, rt.Minute),
			ScenarioID: sc.ID,
			Hour:       rt.Hour,
			Minute:     rt.Minute,
			Timezone:   loc.String(),
			CronSpec:   fmt.Sprintf("%d %d * * *", rt.Minute, rt.Hour),
		})
	}

	if err := s.triggers.ReplaceForScenario(ctx, sc.ID, triggers); err != nil {
		return nil, fmt.Errorf("persisting triggers for scenario %d failed: %w", sc.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[string]bool, len(triggers))
	for _, t := range triggers {
		keep[t.ID] = true
	}
	for id := range s.byScenario[sc.ID] {
		if !keep[id] {
			s.removeLocked(sc.ID, id)
		}
	}

	ids := make([]string, 0, len(triggers))
	for _, t := range triggers {
		if err := s.registerLocked(sc, t, loc); err != nil {
			slog.Error("registering trigger failed", "trigger_id", t.ID, "error", err)
			continue
		}
		ids = append(ids, t.ID)
	}

	slog.Info("scenario scheduled", "scenario_id", sc.ID, "triggers", ids, "timezone", loc.String())
	return ids, nil
}

// Unschedule removes every trigger of the scenario, in memory and in storage.
func (s *Scheduler) Unschedule(ctx context.Context, sc *models.Scenario) error {
	s.mu.Lock()
	for id := range s.byScenario[sc.ID] {
		s.removeLocked(sc.ID, id)
	}
	// Triggers derived from the current run times may exist without being tracked.
	for _, raw := range sc.RunTimes {
		if rt, err := parseRunTime(raw); err == nil {
			s.removeLocked(sc.ID, models.TriggerID(sc.ID, rt.Hour, rt.Minute))
		}
	}
	delete(s.byScenario, sc.ID)
	s.mu.Unlock()

	if err := s.triggers.DeleteByScenario(ctx, sc.ID); err != nil {
		return fmt.Errorf("deleting triggers for scenario %d failed: %w", sc.ID, err)
	}
	slog.Info("scenario unscheduled", "scenario_id", sc.ID)
	return nil
}

// Restore re-registers persisted triggers for active scenarios after a
// restart. Active scenarios without stored triggers are scheduled from
// their run times.
func (s *Scheduler) Restore(ctx context.Context) error {
	if n, err := s.triggers.DeleteOrphans(ctx); err != nil {
		slog.Error("cleaning orphan triggers failed", "error", err)
	} else if n > 0 {
		slog.Info("removed orphan triggers", "count", n)
	}

	scenarios, err := s.scenarios.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("listing active scenarios failed: %w", err)
	}
	stored, err := s.triggers.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("listing stored triggers failed: %w", err)
	}

	byID := make(map[int64]*models.Scenario, len(scenarios))
	for _, sc := range scenarios {
		byID[sc.ID] = sc
	}

	restored := make(map[int64]bool)
	s.mu.Lock()
	for _, t := range stored {
		sc, ok := byID[t.ScenarioID]
		if !ok {
			continue
		}
		loc, err := LoadLocation(t.Timezone, s.opts.DefaultTimezone)
		if err != nil {
			slog.Error("stored trigger has bad time zone", "trigger_id", t.ID, "error", err)
			continue
		}
		if err := s.registerLocked(sc, t, loc); err != nil {
			slog.Error("restoring trigger failed", "trigger_id", t.ID, "error", err)
			continue
		}
		restored[sc.ID] = true
	}
	s.mu.Unlock()

	for _, sc := range scenarios {
		if restored[sc.ID] {
			continue
		}
		if _, err := s.Schedule(ctx, sc); err != nil {
			slog.Error("scheduling scenario on restore failed", "scenario_id", sc.ID, "error", err)
		}
	}

	slog.Info("scheduler restored", "scenarios", len(scenarios), "triggers", len(s.TriggerIDs()))
	return nil
}

// TriggerIDs lists registered trigger ids in sorted order.
func (s *Scheduler) TriggerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Triggers lists the stored triggers of a scenario with their next fire time.
func (s *Scheduler) Triggers(ctx context.Context, scenarioID int64) ([]models.ScheduledTrigger, error) {
	stored, err := s.triggers.ListByScenario(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("listing triggers for scenario %d failed: %w", scenarioID, err)
	}
	out := make([]models.ScheduledTrigger, 0, len(stored))
	for _, t := range stored {
		st := models.ScheduledTrigger{Trigger: t}
		if next, ok := s.nextRun(t.ID); ok {
			st.NextRun = &next
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Scheduler) nextRun(triggerID string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[triggerID]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return time.Time{}, false
	}
	return entry.Schedule.Next(time.Now()), true
}

func (s *Scheduler) registerLocked(sc *models.Scenario, t *models.Trigger, loc *time.Location) error {
	schedule, err := cron.ParseStandard(t.CronSpec)
	if err != nil {
		return err
	}
	if spec, ok := schedule.(*cron.SpecSchedule); ok {
		spec.Location = loc
	}

	if old, ok := s.entries[t.ID]; ok {
		s.cron.Remove(old)
	}

	req := models.RunRequest{
		ScenarioID: sc.ID,
		UserID:     sc.OwnerID,
		ChannelID:  sc.ChannelID,
		Trigger:    t.ID,
	}
	s.entries[t.ID] = s.cron.Schedule(schedule, cron.FuncJob(func() { s.fire(req) }))

	if s.byScenario[sc.ID] == nil {
		s.byScenario[sc.ID] = make(map[string]bool)
	}
	s.byScenario[sc.ID][t.ID] = true
	return nil
}

func (s *Scheduler) removeLocked(scenarioID int64, triggerID string) {
	if id, ok := s.entries[triggerID]; ok {
		s.cron.Remove(id)
		delete(s.entries, triggerID)
	}
	delete(s.byScenario[scenarioID], triggerID)
}

func (s *Scheduler) fire(req models.RunRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.DispatchTimeout)
	defer cancel()

	req.RequestedAt = time.Now()
	if err := s.dispatcher.Dispatch(ctx, req); err != nil {
		slog.Error("dispatching scenario run failed",
			"scenario_id", req.ScenarioID,
			"trigger_id", req.Trigger,
			"error", err)
	}
}
