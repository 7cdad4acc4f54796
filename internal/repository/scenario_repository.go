package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/autoposter/internal/models"
)

type ScenarioRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Scenario, error)
	Create(ctx context.Context, s *models.Scenario) (int64, error)
	Update(ctx context.Context, s *models.Scenario) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	ListActive(ctx context.Context) ([]*models.Scenario, error)
	ListByChannel(ctx context.Context, channelID int64) ([]*models.Scenario, error)
}

type scenarioRepository struct {
	db *sql.DB
}

func NewScenarioRepository(db *sql.DB) ScenarioRepository {
	return &scenarioRepository{db: db}
}

const scenarioColumns = `id, owner_id, channel_id, name, theme, keywords, sources, media_strategy, posting_mode,
	run_times, timezone, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(row rowScanner) (*models.Scenario, error) {
	var s models.Scenario
	var keywords, sources, runTimes pq.StringArray
	err := row.Scan(&s.ID, &s.OwnerID, &s.ChannelID, &s.Name, &s.Theme, &keywords, &sources, &s.MediaStrategy,
		&s.PostingMode, &runTimes, &s.Timezone, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Keywords = []string(keywords)
	s.Sources = []string(sources)
	s.RunTimes = []string(runTimes)
	return &s, nil
}

func (r *scenarioRepository) GetByID(ctx context.Context, id int64) (*models.Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios WHERE id = $1`
	s, err := scanScenario(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return s, nil
}

func (r *scenarioRepository) Create(ctx context.Context, s *models.Scenario) (int64, error) {
	query := `
		INSERT INTO scenarios (owner_id, channel_id, name, theme, keywords, sources, media_strategy, posting_mode, run_times, timezone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, s.OwnerID, s.ChannelID, s.Name, s.Theme, pq.Array(s.Keywords),
		pq.Array(s.Sources), s.MediaStrategy, s.PostingMode, pq.Array(s.RunTimes), s.Timezone, s.IsActive).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrScenarioNameTaken
		}
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *scenarioRepository) Update(ctx context.Context, s *models.Scenario) error {
	query := `
		UPDATE scenarios
		SET name = $1,
			theme = $2,
			keywords = $3,
			sources = $4,
			media_strategy = $5,
			posting_mode = $6,
			run_times = $7,
			timezone = $8,
			updated_at = $9
		WHERE id = $10
	`
	res, err := r.db.ExecContext(ctx, query, s.Name, s.Theme, pq.Array(s.Keywords), pq.Array(s.Sources), s.MediaStrategy,
		s.PostingMode, pq.Array(s.RunTimes), s.Timezone, time.Now(), s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrScenarioNameTaken
		}
		slog.Info(err.Error())
		return err
	}
	return expectAffected(res)
}

func (r *scenarioRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE scenarios SET is_active = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectAffected(res)
}

func (r *scenarioRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectAffected(res)
}

func (r *scenarioRepository) ListActive(ctx context.Context) ([]*models.Scenario, error) {
	return r.list(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE is_active = TRUE ORDER BY id`)
}

func (r *scenarioRepository) ListByChannel(ctx context.Context, channelID int64) ([]*models.Scenario, error) {
	return r.list(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE channel_id = $1 ORDER BY id`, channelID)
}

func (r *scenarioRepository) list(ctx context.Context, query string, args ...any) ([]*models.Scenario, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var scenarios []*models.Scenario
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, rows.Err()
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
