package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/autoposter/internal/models"
)

type TriggerRepository interface {
	ReplaceForScenario(ctx context.Context, scenarioID int64, triggers []*models.Trigger) error
	DeleteByScenario(ctx context.Context, scenarioID int64) error
	ListByScenario(ctx context.Context, scenarioID int64) ([]*models.Trigger, error)
	ListActive(ctx context.Context) ([]*models.Trigger, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

type triggerRepository struct {
	db *sql.DB
}

func NewTriggerRepository(db *sql.DB) TriggerRepository {
	return &triggerRepository{db: db}
}

func (r *triggerRepository) ReplaceForScenario(ctx context.Context, scenarioID int64, triggers []*models.Trigger) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trigger tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scenario_triggers WHERE scenario_id = $1`, scenarioID); err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `
		INSERT INTO scenario_triggers (id, scenario_id, hour, minute, timezone, cron_spec)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, t := range triggers {
		if _, err := tx.ExecContext(ctx, query, t.ID, scenarioID, t.Hour, t.Minute, t.Timezone, t.CronSpec); err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	return tx.Commit()
}

func (r *triggerRepository) DeleteByScenario(ctx context.Context, scenarioID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scenario_triggers WHERE scenario_id = $1`, scenarioID); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *triggerRepository) ListByScenario(ctx context.Context, scenarioID int64) ([]*models.Trigger, error) {
	query := `
		SELECT id, scenario_id, hour, minute, timezone, cron_spec, created_at
		FROM scenario_triggers WHERE scenario_id = $1 ORDER BY hour, minute
	`
	return r.list(ctx, query, scenarioID)
}

// ListActive returns triggers whose scenario is still flagged active.
func (r *triggerRepository) ListActive(ctx context.Context) ([]*models.Trigger, error) {
	query := `
		SELECT t.id, t.scenario_id, t.hour, t.minute, t.timezone, t.cron_spec, t.created_at
		FROM scenario_triggers t
		JOIN scenarios s ON s.id = t.scenario_id
		WHERE s.is_active = TRUE
		ORDER BY t.scenario_id, t.hour, t.minute
	`
	return r.list(ctx, query)
}

func (r *triggerRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM scenario_triggers t
		WHERE NOT EXISTS (SELECT 1 FROM scenarios s WHERE s.id = t.scenario_id AND s.is_active = TRUE)
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}

func (r *triggerRepository) list(ctx context.Context, query string, args ...any) ([]*models.Trigger, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var triggers []*models.Trigger
	for rows.Next() {
		var t models.Trigger
		if err := rows.Scan(&t.ID, &t.ScenarioID, &t.Hour, &t.Minute, &t.Timezone, &t.CronSpec, &t.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		triggers = append(triggers, &t)
	}
	return triggers, rows.Err()
}
