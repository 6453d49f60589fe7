package ports

import (
	"context"
	"errors"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
)

// ErrNoFaceDetected indicates the frame held no face above the score threshold.
var ErrNoFaceDetected = errors.New("no face detected")

// ErrModelsNotLoaded indicates Detect was called before LoadModels succeeded.
var ErrModelsNotLoaded = errors.New("models not loaded")

// ModelLoadError names the model that could not be loaded.
type ModelLoadError struct {
	Model string
	Err   error
}

func (e *ModelLoadError) Error() string {
	return "load model " + e.Model + ": " + e.Err.Error()
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// ExpressionDetector runs single-face detection followed by expression
// classification on a still frame.
type ExpressionDetector interface {
	// LoadModels prepares the face detector and expression classifier.
	LoadModels(ctx context.Context) error
	// Detect returns ErrNoFaceDetected when no face qualifies.
	Detect(ctx context.Context, frame []byte) (domain.Detection, error)
}
