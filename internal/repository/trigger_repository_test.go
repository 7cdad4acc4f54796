package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerReplaceForScenarioRunsInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	triggers := []*models.Trigger{
		{ID: models.TriggerID(1, 9, 0), Hour: 9, Minute: 0, Timezone: "UTC", CronSpec: "0 9 * * *"},
		{ID: models.TriggerID(1, 18, 30), Hour: 18, Minute: 30, Timezone: "UTC", CronSpec: "30 18 * * *"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM scenario_triggers WHERE scenario_id = \$1`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO scenario_triggers`).
		WithArgs("scenario_1_9_0", int64(1), 9, 0, "UTC", "0 9 * * *").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO scenario_triggers`).
		WithArgs("scenario_1_18_30", int64(1), 18, 30, "UTC", "30 18 * * *").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewTriggerRepository(db).ReplaceForScenario(context.Background(), 1, triggers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTriggerReplaceForScenarioRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM scenario_triggers`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO scenario_triggers`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err = NewTriggerRepository(db).ReplaceForScenario(context.Background(), 1, []*models.Trigger{{ID: "scenario_1_9_0"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
