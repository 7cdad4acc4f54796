package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/autoposter/internal/models"
)

// Enqueuer is the part of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqDispatcher hands fired triggers and manual runs to the worker pool.
type AsynqDispatcher struct {
	client  Enqueuer
	timeout time.Duration
}

func NewAsynqDispatcher(client Enqueuer, jobTimeout time.Duration) *AsynqDispatcher {
	return &AsynqDispatcher{client: client, timeout: jobTimeout}
}

func NewScenarioRunTask(req models.RunRequest) (*asynq.Task, error) {
	payload, err := json.Marshal(ScenarioRunPayload(req))
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeScenarioRun, payload), nil
}

// Dispatch enqueues a run. Runs are never retried by the queue: a failed
// run has already notified the user.
func (d *AsynqDispatcher) Dispatch(ctx context.Context, req models.RunRequest) error {
	task, err := NewScenarioRunTask(req)
	if err != nil {
		return err
	}

	opts := []asynq.Option{asynq.MaxRetry(0), asynq.Queue(ScenarioQueueName)}
	if d.timeout > 0 {
		opts = append(opts, asynq.Timeout(d.timeout))
	}

	info, err := d.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueueing scenario run failed: %w", err)
	}

	slog.Info("scenario run enqueued", "task_id", info.ID, "scenario_id", req.ScenarioID, "trigger", req.Trigger)
	return nil
}
