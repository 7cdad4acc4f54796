package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandleScenarioRunTask(ctx context.Context, task *asynq.Task) error {
	var payload ScenarioRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decoding scenario run payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.ScenarioID == 0 {
		return fmt.Errorf("scenario run payload has no scenario id: %w", asynq.SkipRetry)
	}

	res := q.runner.Run(ctx, payload)
	slog.Debug("scenario task handled", "run_id", res.RunID, "status", res.Status)
	return nil
}

// Mux registers the task handlers.
func (q *Queue) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeScenarioRun, q.HandleScenarioRunTask)
	return mux
}
