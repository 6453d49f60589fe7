package rest

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/go-chi/chi/v5"
)

// frameField is the multipart field holding the captured frame.
const frameField = "frame"

var frameContentTypes = map[string]bool{
	"image/jpeg":               true,
	"image/png":                true,
	"image/webp":               true,
	"image/bmp":                true,
	"application/octet-stream": true,
}

var (
	errUnsupportedMedia = errors.New("unsupported content type")
	errFrameTooLarge    = errors.New("frame too large")
	errMissingFrame     = errors.New("missing frame")
)

type cameraRequest struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason"`
}

// CreateSession handles POST /api/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.StartSession(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, s.View())
}

// GetSession handles GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// Camera handles POST /api/sessions/{id}/camera
func (h *Handler) Camera(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req cameraRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	var (
		s   domain.Session
		err error
	)
	if req.Granted {
		s, err = h.svc.CameraGranted(r.Context(), id)
	} else {
		s, err = h.svc.CameraDenied(r.Context(), id, req.Reason)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// Detect handles POST /api/sessions/{id}/detect. The frame is either the raw
// request body or the "frame" part of a multipart form. The cycle runs in the
// background; clients poll GET /api/sessions/{id} for the outcome.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	frame, err := h.readFrame(w, r)
	switch {
	case errors.Is(err, errUnsupportedMedia):
		writeError(w, http.StatusUnsupportedMediaType, "frame must be an image or multipart form")
		return
	case errors.Is(err, errFrameTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "frame too large")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, s, err := h.svc.BeginDetection(r.Context(), chi.URLParam(r, "id"), frame)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if err := h.jobs.Submit(job); err != nil {
		h.log.Warnf("session %s: cannot queue detection: %v", job.SessionID, err)
		_, _ = h.svc.Abandon(r.Context(), job, err)
		writeErrorWithCode(w, http.StatusServiceUnavailable, "detection queue is full, try again", "QUEUE_FULL")
		return
	}

	writeJSON(w, http.StatusAccepted, s.View())
}

func (h *Handler) readFrame(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, errUnsupportedMedia
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFrame)

	var src io.Reader
	switch {
	case mt == "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxFrame); err != nil {
			return nil, frameReadError(err, "failed to parse multipart form")
		}
		f, _, err := r.FormFile(frameField)
		if err != nil {
			return nil, errMissingFrame
		}
		defer f.Close()
		src = f
	case frameContentTypes[mt]:
		src = r.Body
	default:
		return nil, errUnsupportedMedia
	}

	frame, err := io.ReadAll(src)
	if err != nil {
		return nil, frameReadError(err, "failed to read frame")
	}
	if len(frame) == 0 {
		return nil, errMissingFrame
	}
	return frame, nil
}

func frameReadError(err error, msg string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errFrameTooLarge
	}
	return errors.New(msg)
}
