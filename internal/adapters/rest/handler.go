package rest

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/services"
	"github.com/ewilliams-labs/moodmusic/internal/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxFrameBytes caps the size of an uploaded frame.
const DefaultMaxFrameBytes int64 = 5 << 20

// JobQueue accepts detection jobs for background processing.
type JobQueue interface {
	Submit(job services.DetectionJob) error
}

// Options configures optional parts of the Handler.
type Options struct {
	MaxFrameBytes int64
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc      *services.Orchestrator
	jobs     JobQueue
	router   *chi.Mux
	maxFrame int64
	metrics  http.Handler
	log      *logger.Logger
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc *services.Orchestrator, jobs JobQueue, opts Options) *Handler {
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = DefaultMaxFrameBytes
	}
	h := &Handler{
		svc:      svc,
		jobs:     jobs,
		router:   chi.NewRouter(),
		maxFrame: opts.MaxFrameBytes,
		metrics:  opts.Metrics,
		log:      logger.New("rest"),
	}

	h.router.Use(chiMiddleware.RequestID)
	h.router.Use(chiMiddleware.RealIP)
	h.router.Use(chiMiddleware.Logger)
	h.router.Use(chiMiddleware.Recoverer)
	h.router.Use(chiMiddleware.Timeout(30 * time.Second))

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.Get("/", h.Page)
	h.router.Get("/health", h.HealthCheck)
	h.router.Get("/ready", h.Ready)
	if h.metrics != nil {
		h.router.Handle("/metrics", h.metrics)
	}

	h.router.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/{id}", h.GetSession)
		r.Post("/{id}/camera", h.Camera)
		r.Post("/{id}/detect", h.Detect)
	})
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "moodmusic is live 🎶"})
}

// Ready reports 200 once the detector models are loaded.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.ModelStatus()
	body := map[string]string{"status": status.String()}
	if err != nil {
		body["error"] = err.Error()
	}
	if status != services.LoadReady {
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func isJSONContentType(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// writeServiceError maps core errors onto HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, domain.ErrCameraNotReady):
		writeErrorWithCode(w, http.StatusConflict, "camera is not on", "CAMERA_NOT_READY")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeErrorWithCode(w, http.StatusConflict, err.Error(), "INVALID_TRANSITION")
	case errors.Is(err, services.ErrEmptyFrame):
		writeError(w, http.StatusBadRequest, "frame is empty")
	default:
		h.log.Errorf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
