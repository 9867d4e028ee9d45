package web

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justestif/go-library-themes/internal/themes"
)

// ErrDiscoveryRunning is returned when a discovery is started while another
// one is still in progress.
var ErrDiscoveryRunning = errors.New("a discovery run is already in progress")

// Job states.
const (
	StateRunning  = "running"
	StateDone     = "done"
	StateFailed   = "failed"
	StateCanceled = "canceled"
)

// Discoverer is the part of themes.Engine the server drives.
type Discoverer interface {
	Discover(ctx context.Context, progress themes.ProgressFunc) (themes.Result, error)
	Cached() ([]themes.Theme, bool)
	ClearCache() error
}

// Job is a snapshot of one discovery run.
type Job struct {
	ID         string         `json:"id"`
	State      string         `json:"state"`
	Message    string         `json:"message"`
	Percent    int            `json:"percent"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Result     *themes.Result `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Runner executes discovery off the request path, one run at a time.
type Runner struct {
	engine Discoverer
	base   context.Context
	log    *zap.Logger

	mu     sync.RWMutex
	job    *Job
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a Runner. Runs are cancelled when base ends.
func NewRunner(base context.Context, engine Discoverer, log *zap.Logger) *Runner {
	return &Runner{engine: engine, base: base, log: log.Named("runner")}
}

// Start launches a discovery run and returns its initial snapshot.
func (r *Runner) Start() (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job != nil && r.job.State == StateRunning {
		return *r.job, ErrDiscoveryRunning
	}

	ctx, cancel := context.WithCancel(r.base)
	job := &Job{
		ID:        uuid.NewString(),
		State:     StateRunning,
		Message:   "Starting",
		StartedAt: time.Now(),
	}
	r.job = job
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(ctx, job, r.done)
	return *job, nil
}

func (r *Runner) run(ctx context.Context, job *Job, done chan struct{}) {
	defer close(done)
	defer r.cancelRun(job)

	res, err := r.engine.Discover(ctx, func(message string, percent int) {
		r.mu.Lock()
		job.Message = message
		job.Percent = percent
		r.mu.Unlock()
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	job.FinishedAt = &now
	switch {
	case ctx.Err() != nil:
		job.State = StateCanceled
		job.Message = "Discovery cancelled"
	case err != nil:
		job.State = StateFailed
		job.Error = err.Error()
		job.Percent = themes.ProgressError
	default:
		job.State = StateDone
		job.Result = &res
	}
	r.log.Info("discovery job finished", zap.String("job", job.ID), zap.String("state", job.State))
}

func (r *Runner) cancelRun(job *Job) {
	r.mu.RLock()
	cancel := r.cancel
	current := r.job
	r.mu.RUnlock()
	if current == job && cancel != nil {
		cancel()
	}
}

// Status returns the latest job, if any.
func (r *Runner) Status() (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.job == nil {
		return Job{}, false
	}
	return *r.job, true
}

// Cancel stops the running job. It reports false when nothing is running.
func (r *Runner) Cancel() bool {
	r.mu.RLock()
	running := r.job != nil && r.job.State == StateRunning
	cancel := r.cancel
	r.mu.RUnlock()
	if !running {
		return false
	}
	cancel()
	return true
}

// Wait blocks until the current job finishes or ctx ends.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
