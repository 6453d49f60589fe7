package services

import (
	"context"
	"sync"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
	"github.com/ewilliams-labs/moodmusic/internal/logger"
)

// LoadStatus is the model loading lifecycle.
type LoadStatus int

const (
	LoadPending LoadStatus = iota
	LoadLoading
	LoadReady
	LoadFailed
)

func (s LoadStatus) String() string {
	switch s {
	case LoadPending:
		return "pending"
	case LoadLoading:
		return "loading"
	case LoadReady:
		return "ready"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ModelLoader loads the detector models exactly once per process. A failure
// is permanent: later callers get the same error and no reload is attempted.
type ModelLoader struct {
	detector ports.ExpressionDetector
	timeout  time.Duration
	rec      Recorder
	log      *logger.Logger

	once sync.Once
	done chan struct{}

	mu     sync.RWMutex
	status LoadStatus
	err    error
}

// NewModelLoader constructs a loader. A timeout of zero means no deadline.
func NewModelLoader(detector ports.ExpressionDetector, timeout time.Duration, rec Recorder) *ModelLoader {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &ModelLoader{
		detector: detector,
		timeout:  timeout,
		rec:      rec,
		log:      logger.New("model loader"),
		done:     make(chan struct{}),
	}
}

// Start loads the models in the background.
func (l *ModelLoader) Start(ctx context.Context) {
	go func() {
		_ = l.Load(ctx)
	}()
}

// Load runs the load on first call and blocks until it finishes; every call
// returns the outcome of that single attempt.
func (l *ModelLoader) Load(ctx context.Context) error {
	l.once.Do(func() {
		l.setStatus(LoadLoading, nil)

		loadCtx := ctx
		if l.timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(ctx, l.timeout)
			defer cancel()
		}

		start := time.Now()
		err := l.detector.LoadModels(loadCtx)
		l.rec.ObserveStep("load_models", time.Since(start).Seconds())
		if err != nil {
			l.log.Errorf("models unavailable for this process: %v", err)
			l.setStatus(LoadFailed, err)
			l.rec.ModelsReady(false)
		} else {
			l.log.Infof("models ready in %s", time.Since(start).Round(time.Millisecond))
			l.setStatus(LoadReady, nil)
			l.rec.ModelsReady(true)
		}
		close(l.done)
	})
	<-l.done
	_, err := l.Status()
	return err
}

// Wait blocks until the load attempt finishes or ctx ends.
func (l *ModelLoader) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		_, err := l.Status()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports the current lifecycle state and the load error, if any.
func (l *ModelLoader) Status() (LoadStatus, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status, l.err
}

func (l *ModelLoader) setStatus(s LoadStatus, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = s
	l.err = err
}
