package queue

import (
	"context"

	"github.com/maheshrc27/autoposter/internal/models"
	job "github.com/maheshrc27/autoposter/internal/jobs"
)

// Runner executes one scenario run.
type Runner interface {
	Run(ctx context.Context, req models.RunRequest) job.Result
}

type Queue struct {
	runner Runner
}

func NewQueue(runner Runner) *Queue {
	return &Queue{runner: runner}
}

const (
	TaskTypeScenarioRun = "scenario:run"
	ScenarioQueueName   = "scenarios"
)

type ScenarioRunPayload = models.RunRequest
