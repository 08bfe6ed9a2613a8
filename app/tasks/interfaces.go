package tasks

import (
	"context"

	"github.com/boardswallah/boards-press/app/generation"
)

// TaskSchedulerInterface runs tasks on a fixed pool of workers.
//
//	scheduler := NewScheduler(workerCount, queueSize)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(task)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// CancellableTask is a task that records an outcome when it is dropped before running.
type CancellableTask interface {
	TaskInterface
	Cancel(err error)
}

// Generator is the part of the generation client a job needs.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
}
