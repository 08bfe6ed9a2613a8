package tasks

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/boardswallah/boards-press/app/generation"
	"github.com/boardswallah/boards-press/app/metrics"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

const DefaultJobRegistrySize = 128

var ErrJobNotFound = errors.New("generation job not found")

// Job is one background generation run as seen by the operator.
type Job struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	status     JobStatus
	request    generation.Request
	result     *generation.Result
	err        error
	startedAt  time.Time
	finishedAt time.Time
}

func (j *Job) start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	metrics.MoveJob(string(j.status), string(JobRunning))
	j.status = JobRunning
	j.startedAt = time.Now().UTC()
}

func (j *Job) finish(result *generation.Result, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	status := JobSucceeded
	if err != nil {
		status = JobFailed
	}
	metrics.MoveJob(string(j.status), string(status))

	j.status = status
	j.result = result
	j.err = err
	j.finishedAt = time.Now().UTC()
}

// Snapshot returns the job state. Err is the generation error for failed jobs.
func (j *Job) Snapshot() (JobStatus, *generation.Result, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status, j.result, j.err
}

// JobView is the JSON form of a job; the API fills in error details.
type JobView struct {
	ID         string             `json:"id"`
	Status     JobStatus          `json:"status"`
	Request    generation.Request `json:"request"`
	Result     *generation.Result `json:"result,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	StartedAt  *time.Time         `json:"started_at,omitempty"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

func (j *Job) View() JobView {
	j.mu.Lock()
	defer j.mu.Unlock()

	view := JobView{
		ID:        j.ID,
		Status:    j.status,
		Request:   j.request,
		Result:    j.result,
		CreatedAt: j.CreatedAt,
	}
	if !j.startedAt.IsZero() {
		started := j.startedAt
		view.StartedAt = &started
	}
	if !j.finishedAt.IsZero() {
		finished := j.finishedAt
		view.FinishedAt = &finished
	}
	return view
}

// Jobs submits generation requests to the scheduler and remembers recent jobs.
type Jobs struct {
	scheduler TaskSchedulerInterface
	generator Generator
	registry  *lru.Cache[string, *Job]
}

func NewJobs(scheduler TaskSchedulerInterface, generator Generator, size int) (*Jobs, error) {
	if size <= 0 {
		size = DefaultJobRegistrySize
	}

	registry, err := lru.New[string, *Job](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create job registry: %w", err)
	}

	return &Jobs{scheduler: scheduler, generator: generator, registry: registry}, nil
}

// Submit validates req and queues it. Validation errors are returned without creating a job.
func (j *Jobs) Submit(req generation.Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	job := &Job{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		status:    JobQueued,
		request:   req,
	}

	metrics.MoveJob("", string(JobQueued))
	j.registry.Add(job.ID, job)

	if err := j.scheduler.EnqueueTask(NewGenerateTask(job, j.generator, req)); err != nil {
		j.registry.Remove(job.ID)
		metrics.GenerationJobs.WithLabelValues(string(JobQueued)).Dec()
		return nil, fmt.Errorf("failed to enqueue generation: %w", err)
	}

	return job, nil
}

func (j *Jobs) Get(id string) (*Job, error) {
	job, ok := j.registry.Get(id)
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}
