package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/autoposter/internal/models"
	job "github.com/maheshrc27/autoposter/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	reqs []models.RunRequest
}

func (r *recordingRunner) Run(_ context.Context, req models.RunRequest) job.Result {
	r.reqs = append(r.reqs, req)
	return job.Result{RunID: "run", Status: job.StatusDone}
}

type capturingEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
}

func (c *capturingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	c.tasks = append(c.tasks, task)
	c.opts = append(c.opts, opts)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func optionValue(opts []asynq.Option, typ asynq.OptionType) (interface{}, bool) {
	for _, o := range opts {
		if o.Type() == typ {
			return o.Value(), true
		}
	}
	return nil, false
}

func TestDispatchEnqueuesScenarioRun(t *testing.T) {
	enq := &capturingEnqueuer{}
	d := NewAsynqDispatcher(enq, 5*time.Minute)

	req := models.RunRequest{ScenarioID: 3, UserID: 9, ChannelID: -100, Trigger: "scenario_3_9_0"}
	require.NoError(t, d.Dispatch(context.Background(), req))

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskTypeScenarioRun, enq.tasks[0].Type())

	var got models.RunRequest
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &got))
	assert.Equal(t, req.ScenarioID, got.ScenarioID)
	assert.Equal(t, req.Trigger, got.Trigger)

	retry, ok := optionValue(enq.opts[0], asynq.MaxRetryOpt)
	require.True(t, ok)
	assert.Equal(t, 0, retry)

	queueName, ok := optionValue(enq.opts[0], asynq.QueueOpt)
	require.True(t, ok)
	assert.Equal(t, ScenarioQueueName, queueName)

	timeout, ok := optionValue(enq.opts[0], asynq.TimeoutOpt)
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, timeout)
}

type failingEnqueuer struct{}

func (failingEnqueuer) EnqueueContext(context.Context, *asynq.Task, ...asynq.Option) (*asynq.TaskInfo, error) {
	return nil, errors.New("redis down")
}

func TestDispatchReportsEnqueueFailure(t *testing.T) {
	err := NewAsynqDispatcher(failingEnqueuer{}, time.Minute).Dispatch(context.Background(), models.RunRequest{ScenarioID: 1})
	assert.ErrorContains(t, err, "redis down")
}

func TestHandleScenarioRunTask(t *testing.T) {
	runner := &recordingRunner{}
	q := NewQueue(runner)

	task, err := NewScenarioRunTask(models.RunRequest{ScenarioID: 4, UserID: 1, ChannelID: 2, Trigger: models.TriggerManual})
	require.NoError(t, err)

	require.NoError(t, q.HandleScenarioRunTask(context.Background(), task))
	require.Len(t, runner.reqs, 1)
	assert.Equal(t, int64(4), runner.reqs[0].ScenarioID)
	assert.Equal(t, models.TriggerManual, runner.reqs[0].Trigger)
}

func TestHandleScenarioRunTaskRejectsBadPayload(t *testing.T) {
	runner := &recordingRunner{}
	q := NewQueue(runner)

	err := q.HandleScenarioRunTask(context.Background(), asynq.NewTask(TaskTypeScenarioRun, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = q.HandleScenarioRunTask(context.Background(), asynq.NewTask(TaskTypeScenarioRun, []byte(`{}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	assert.Empty(t, runner.reqs)
}
