// Package worker runs detect/fetch cycles in the background.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/services"
	"github.com/ewilliams-labs/moodmusic/internal/logger"
)

var (
	ErrQueueFull = errors.New("worker: queue full")
	ErrStopped   = errors.New("worker: pool stopped")
)

// Runner executes one queued cycle. services.Orchestrator implements it.
type Runner interface {
	RunDetection(ctx context.Context, job services.DetectionJob) (domain.Session, error)
}

// Pool manages background workers for detection jobs.
type Pool struct {
	runner Runner
	jobs   chan services.DetectionJob
	wg     sync.WaitGroup
	log    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a pool with the given queue size.
func NewPool(runner Runner, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		runner: runner,
		jobs:   make(chan services.DetectionJob, queueSize),
		log:    logger.New("worker"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.process(job)
			}
		}()
	}
}

// Stop cancels in-flight cycles, closes the queue and waits for workers.
// Jobs still queued run against the cancelled context and fail fast.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.cancel()
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job services.DetectionJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		p.log.Warnf("dropping cycle %d for session %s", job.Seq, job.SessionID)
		return ErrQueueFull
	}
}

func (p *Pool) process(job services.DetectionJob) {
	s, err := p.runner.RunDetection(p.ctx, job)
	switch {
	case err == nil:
		p.log.Debugf("session %s: cycle %d finished with %d videos", job.SessionID, job.Seq, len(s.EmbedURLs))
	case errors.Is(err, domain.ErrStaleResult):
		p.log.Debugf("session %s: cycle %d superseded", job.SessionID, job.Seq)
	default:
		p.log.Debugf("session %s: cycle %d ended: %v", job.SessionID, job.Seq, err)
	}
}
