package rest

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
)

//go:embed web/index.html
var indexHTML string

var pageTemplate = template.Must(template.New("index").Parse(indexHTML))

type pageData struct {
	View domain.View
}

// Page handles GET /. Every load starts a fresh session so each tab has its
// own state.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.StartSession(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pageData{View: s.View()}); err != nil {
		h.log.Errorf("render page: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
