package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
	"github.com/ewilliams-labs/moodmusic/internal/logger"
)

const (
	DefaultDetectTimeout = 20 * time.Second
	DefaultSearchTimeout = 10 * time.Second
)

// ErrEmptyFrame is returned when a detection is requested without an image.
var ErrEmptyFrame = errors.New("service: empty frame")

var userMessages = map[domain.ErrorKind]string{
	domain.ErrorModelLoad:       "Mood detection is unavailable right now.",
	domain.ErrorNoFace:          "No face detected. Look at the camera and try again.",
	domain.ErrorNoExpressions:   "Could not read an expression. Try again.",
	domain.ErrorDetectionFailed: "Mood detection failed. Try again.",
	domain.ErrorEmptyResults:    "No videos found for this mood.",
	domain.ErrorSearchFailed:    "Could not fetch music. Try again.",
}

// CycleError reports the failure that ended a detect/fetch cycle.
type CycleError struct {
	Kind domain.ErrorKind
	Err  error
}

func (e *CycleError) Error() string {
	if e.Err == nil {
		return "service: " + string(e.Kind)
	}
	return fmt.Sprintf("service: %s: %v", e.Kind, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

// DetectionJob is one queued detect/fetch cycle.
type DetectionJob struct {
	SessionID string
	Seq       uint64
	Frame     []byte
}

// Config tunes an Orchestrator. Zero values fall back to defaults.
type Config struct {
	Queries       domain.QueryTable
	DetectTimeout time.Duration
	SearchTimeout time.Duration
}

type cycle struct {
	seq    uint64
	cancel context.CancelFunc
}

// Orchestrator drives sessions through detection, query mapping and search.
type Orchestrator struct {
	detector ports.ExpressionDetector
	music    ports.MusicSearcher
	sessions ports.SessionStore
	loader   *ModelLoader
	queries  domain.QueryTable
	rec      Recorder
	log      *logger.Logger

	detectTimeout time.Duration
	searchTimeout time.Duration

	mu     sync.Mutex
	cycles map[string]*cycle
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(detector ports.ExpressionDetector, music ports.MusicSearcher, sessions ports.SessionStore, loader *ModelLoader, cfg Config, rec Recorder) *Orchestrator {
	if rec == nil {
		rec = nopRecorder{}
	}
	if cfg.Queries.IsZero() {
		cfg.Queries = domain.DefaultQueryTable()
	}
	if cfg.DetectTimeout <= 0 {
		cfg.DetectTimeout = DefaultDetectTimeout
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}
	return &Orchestrator{
		detector:      detector,
		music:         music,
		sessions:      sessions,
		loader:        loader,
		queries:       cfg.Queries,
		rec:           rec,
		log:           logger.New("orchestrator"),
		detectTimeout: cfg.DetectTimeout,
		searchTimeout: cfg.SearchTimeout,
		cycles:        make(map[string]*cycle),
	}
}

// StartSession creates an idle session.
func (o *Orchestrator) StartSession(ctx context.Context) (domain.Session, error) {
	s, err := o.sessions.Create(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service: failed to create session: %w", err)
	}
	return s, nil
}

// Session returns the current snapshot of a session.
func (o *Orchestrator) Session(ctx context.Context, id string) (domain.Session, error) {
	return o.sessions.Get(ctx, id)
}

// CameraGranted records that the browser obtained the camera stream.
func (o *Orchestrator) CameraGranted(ctx context.Context, id string) (domain.Session, error) {
	return o.sessions.Update(ctx, id, func(s *domain.Session) error {
		return s.GrantCamera()
	})
}

// CameraDenied records a refused or failed camera request.
func (o *Orchestrator) CameraDenied(ctx context.Context, id, reason string) (domain.Session, error) {
	o.log.Warnf("camera unavailable for session %s: %s", id, reason)
	return o.sessions.Update(ctx, id, func(s *domain.Session) error {
		return s.DenyCamera(reason)
	})
}

// ModelStatus reports whether the detector models are usable.
func (o *Orchestrator) ModelStatus() (LoadStatus, error) {
	if o.loader == nil {
		return LoadReady, nil
	}
	return o.loader.Status()
}

// BeginDetection opens a new cycle for the session and supersedes any cycle
// still in flight. The returned job must be passed to RunDetection.
func (o *Orchestrator) BeginDetection(ctx context.Context, id string, frame []byte) (DetectionJob, domain.Session, error) {
	if len(frame) == 0 {
		return DetectionJob{}, domain.Session{}, ErrEmptyFrame
	}
	// Seq++ and cycle registration share one critical section so the
	// registered cycle is always the session's latest.
	o.mu.Lock()
	defer o.mu.Unlock()

	var seq uint64
	s, err := o.sessions.Update(ctx, id, func(s *domain.Session) error {
		var err error
		seq, err = s.BeginDetect()
		return err
	})
	if err != nil {
		return DetectionJob{}, domain.Session{}, err
	}

	if prev, ok := o.cycles[id]; ok && prev.cancel != nil {
		prev.cancel()
	}
	o.cycles[id] = &cycle{seq: seq}

	return DetectionJob{SessionID: id, Seq: seq, Frame: frame}, s, nil
}

// Abandon marks a job that will never run (for example, rejected by a full
// queue) as failed so the session does not stay busy.
func (o *Orchestrator) Abandon(ctx context.Context, job DetectionJob, cause error) (domain.Session, error) {
	o.detach(job.SessionID, job.Seq)
	return o.fail(ctx, job, domain.ErrorDetectionFailed, cause)
}

// DetectMood runs a complete cycle synchronously.
func (o *Orchestrator) DetectMood(ctx context.Context, id string, frame []byte) (domain.Session, error) {
	job, _, err := o.BeginDetection(ctx, id, frame)
	if err != nil {
		return domain.Session{}, err
	}
	return o.RunDetection(ctx, job)
}

// RunDetection detects the dominant mood in the job's frame, maps it to a
// query and fetches videos. Every outcome is written to the session unless a
// newer cycle has started, in which case ErrStaleResult is returned and the
// session is left alone.
func (o *Orchestrator) RunDetection(ctx context.Context, job DetectionJob) (domain.Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !o.attach(job.SessionID, job.Seq, cancel) {
		o.rec.StaleDiscarded()
		o.log.Debugf("session %s: skipping superseded cycle %d", job.SessionID, job.Seq)
		return domain.Session{}, domain.ErrStaleResult
	}
	defer o.detach(job.SessionID, job.Seq)

	if o.loader != nil {
		waitCtx, waitCancel := context.WithTimeout(ctx, o.detectTimeout)
		err := o.loader.Wait(waitCtx)
		waitCancel()
		if err != nil {
			if status, _ := o.loader.Status(); status != LoadFailed {
				o.rec.DetectionOutcome("error")
				return o.fail(ctx, job, domain.ErrorDetectionFailed, fmt.Errorf("models not ready: %w", err))
			}
			o.rec.DetectionOutcome("model_load")
			return o.fail(ctx, job, domain.ErrorModelLoad, err)
		}
	}

	detectCtx, detectCancel := context.WithTimeout(ctx, o.detectTimeout)
	start := time.Now()
	det, err := o.detector.Detect(detectCtx, job.Frame)
	detectCancel()
	o.rec.ObserveStep("detect", time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrNoFaceDetected):
			o.rec.DetectionOutcome("no_face")
			return o.fail(ctx, job, domain.ErrorNoFace, err)
		case errors.Is(err, ports.ErrModelsNotLoaded):
			o.rec.DetectionOutcome("model_load")
			return o.fail(ctx, job, domain.ErrorModelLoad, err)
		default:
			o.rec.DetectionOutcome("error")
			return o.fail(ctx, job, domain.ErrorDetectionFailed, err)
		}
	}

	mood, score, ok := det.Expressions.Top()
	if !ok {
		o.rec.DetectionOutcome("no_expressions")
		return o.fail(ctx, job, domain.ErrorNoExpressions, errors.New("no usable expression scores"))
	}
	o.rec.DetectionOutcome("ok")
	o.rec.MoodDetected(string(mood))

	query := o.queries.QueryFor(mood)
	o.log.Infof("session %s: mood %s (%.2f), query %q", job.SessionID, mood, score, query)
	if _, err := o.commit(ctx, job, func(s *domain.Session) error {
		if err := s.ApplyMood(job.Seq, mood, query); err != nil {
			return err
		}
		return s.BeginFetch(job.Seq)
	}); err != nil {
		return domain.Session{}, err
	}

	searchCtx, searchCancel := context.WithTimeout(ctx, o.searchTimeout)
	start = time.Now()
	videos, err := o.music.SearchVideos(searchCtx, query)
	searchCancel()
	o.rec.ObserveStep("search", time.Since(start).Seconds())
	if err == nil && len(videos) == 0 {
		err = ports.ErrNoResults
	}
	if err != nil {
		if errors.Is(err, ports.ErrNoResults) {
			o.rec.SearchOutcome("empty")
			return o.fail(ctx, job, domain.ErrorEmptyResults, err)
		}
		o.rec.SearchOutcome("error")
		return o.fail(ctx, job, domain.ErrorSearchFailed, err)
	}
	o.rec.SearchOutcome("ok")

	urls := domain.EmbedURLs(videos)
	return o.commit(ctx, job, func(s *domain.Session) error {
		return s.ApplyResults(job.Seq, urls)
	})
}

func (o *Orchestrator) fail(ctx context.Context, job DetectionJob, kind domain.ErrorKind, cause error) (domain.Session, error) {
	o.log.Warnf("session %s: cycle %d failed (%s): %v", job.SessionID, job.Seq, kind, cause)
	msg := userMessages[kind]
	s, err := o.commit(ctx, job, func(s *domain.Session) error {
		return s.Fail(job.Seq, kind, msg)
	})
	if err != nil {
		return s, err
	}
	return s, &CycleError{Kind: kind, Err: cause}
}

// commit applies fn to the session. Writes from superseded cycles are counted
// and reported as ErrStaleResult.
func (o *Orchestrator) commit(ctx context.Context, job DetectionJob, fn func(*domain.Session) error) (domain.Session, error) {
	s, err := o.sessions.Update(context.WithoutCancel(ctx), job.SessionID, fn)
	if err != nil {
		if errors.Is(err, domain.ErrStaleResult) {
			o.rec.StaleDiscarded()
			o.log.Debugf("session %s: discarded result of superseded cycle %d", job.SessionID, job.Seq)
		}
		return domain.Session{}, err
	}
	return s, nil
}

func (o *Orchestrator) attach(id string, seq uint64, cancel context.CancelFunc) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.cycles[id]
	if !ok || c.seq != seq {
		return false
	}
	c.cancel = cancel
	return true
}

func (o *Orchestrator) detach(id string, seq uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, ok := o.cycles[id]; ok && c.seq == seq {
		delete(o.cycles, id)
	}
}
