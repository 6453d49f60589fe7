package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("domain: not found")
	ErrInvalidTransition = errors.New("domain: invalid transition")
	ErrCameraNotReady    = errors.New("domain: camera not ready")
	ErrStaleResult       = errors.New("domain: stale result")
)

// State is the position of a session in the detect/fetch workflow.
type State int

const (
	StateIdle State = iota
	StateCameraGranted
	StateDetecting
	StateMoodDetected
	StateFetchingMusic
	StateResultsReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCameraGranted:
		return "camera_granted"
	case StateDetecting:
		return "detecting"
	case StateMoodDetected:
		return "mood_detected"
	case StateFetchingMusic:
		return "fetching_music"
	case StateResultsReady:
		return "results_ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorKind classifies the failure recorded in StateError.
type ErrorKind string

const (
	ErrorCameraDenied    ErrorKind = "camera_denied"
	ErrorModelLoad       ErrorKind = "model_load"
	ErrorNoFace          ErrorKind = "no_face"
	ErrorNoExpressions   ErrorKind = "no_expressions"
	ErrorDetectionFailed ErrorKind = "detection_failed"
	ErrorEmptyResults    ErrorKind = "empty_results"
	ErrorSearchFailed    ErrorKind = "search_failed"
)

// SessionError is the failure shown to the user.
type SessionError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Session is the state of one browser tab.
//
// Results of a detect/fetch cycle carry the Seq returned by BeginDetect. A
// result whose seq is not the current Seq belongs to a superseded cycle and is
// rejected with ErrStaleResult, leaving the session unchanged.
type Session struct {
	ID          string
	State       State
	Err         *SessionError
	CameraReady bool
	Mood        Mood
	Query       string
	EmbedURLs   []string
	Seq         uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSession returns an idle session.
func NewSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		State:     StateIdle,
		EmbedURLs: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy safe to hand outside a lock.
func (s Session) Clone() Session {
	out := s
	out.EmbedURLs = append([]string(nil), s.EmbedURLs...)
	if out.EmbedURLs == nil {
		out.EmbedURLs = []string{}
	}
	if s.Err != nil {
		e := *s.Err
		out.Err = &e
	}
	return out
}

// Busy reports whether a detect/fetch cycle is in flight.
func (s *Session) Busy() bool {
	switch s.State {
	case StateDetecting, StateMoodDetected, StateFetchingMusic:
		return true
	}
	return false
}

// GrantCamera records a successful camera grant.
func (s *Session) GrantCamera() error {
	if s.CameraReady {
		return fmt.Errorf("%w: camera already granted", ErrInvalidTransition)
	}
	if s.State != StateIdle && !(s.State == StateError && s.Err != nil && s.Err.Kind == ErrorCameraDenied) {
		return fmt.Errorf("%w: grant camera from %s", ErrInvalidTransition, s.State)
	}
	s.CameraReady = true
	s.State = StateCameraGranted
	s.Err = nil
	return nil
}

// DenyCamera records a failed camera request.
func (s *Session) DenyCamera(reason string) error {
	if s.CameraReady {
		return fmt.Errorf("%w: camera already granted", ErrInvalidTransition)
	}
	if reason == "" {
		reason = "camera access was denied"
	}
	s.State = StateError
	s.Err = &SessionError{Kind: ErrorCameraDenied, Message: reason}
	return nil
}

// BeginDetect starts a new detect/fetch cycle and supersedes any in flight.
func (s *Session) BeginDetect() (uint64, error) {
	if !s.CameraReady {
		return 0, ErrCameraNotReady
	}
	s.Seq++
	s.State = StateDetecting
	s.Err = nil
	return s.Seq, nil
}

// ApplyMood records the detected mood and its search phrase.
func (s *Session) ApplyMood(seq uint64, mood Mood, query string) error {
	if err := s.expect(seq, StateDetecting); err != nil {
		return err
	}
	if !mood.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}
	s.Mood = mood
	s.Query = query
	s.State = StateMoodDetected
	return nil
}

// BeginFetch marks the music search as started.
func (s *Session) BeginFetch(seq uint64) error {
	if err := s.expect(seq, StateMoodDetected); err != nil {
		return err
	}
	s.State = StateFetchingMusic
	return nil
}

// ApplyResults replaces the embed URL list.
func (s *Session) ApplyResults(seq uint64, urls []string) error {
	if err := s.expect(seq, StateFetchingMusic); err != nil {
		return err
	}
	s.EmbedURLs = append([]string{}, urls...)
	s.State = StateResultsReady
	return nil
}

// Fail ends the cycle with an error. Mood and results are left untouched.
func (s *Session) Fail(seq uint64, kind ErrorKind, message string) error {
	if seq != s.Seq {
		return ErrStaleResult
	}
	if !s.Busy() {
		return fmt.Errorf("%w: fail from %s", ErrInvalidTransition, s.State)
	}
	s.State = StateError
	s.Err = &SessionError{Kind: kind, Message: message}
	return nil
}

func (s *Session) expect(seq uint64, state State) error {
	if seq != s.Seq {
		return ErrStaleResult
	}
	if s.State != state {
		return fmt.Errorf("%w: expected %s, session is %s", ErrInvalidTransition, state, s.State)
	}
	return nil
}
