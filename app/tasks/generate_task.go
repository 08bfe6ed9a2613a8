package tasks

import (
	"context"
	"log/slog"

	"github.com/boardswallah/boards-press/app/generation"
)

// GenerateTask runs one generation request and records the outcome on its job.
type GenerateTask struct {
	Task
	job       *Job
	generator Generator
	request   generation.Request
}

func NewGenerateTask(job *Job, generator Generator, request generation.Request) *GenerateTask {
	return &GenerateTask{
		Task:      NewTask(TaskTypeGenerate, job.ID),
		job:       job,
		generator: generator,
		request:   request,
	}
}

func (t *GenerateTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		t.job.finish(nil, ctx.Err())
		return ctx.Err()
	default:
	}

	t.job.start()

	result, err := t.generator.Generate(ctx, t.request)
	t.job.finish(result, err)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"job", t.ID,
		"subject", t.request.Subject,
		"articles", len(result.Articles),
		"duration", t.GetDuration())

	return nil
}

// Cancel fails the job of a task that never ran.
func (t *GenerateTask) Cancel(err error) {
	t.job.finish(nil, err)
}
