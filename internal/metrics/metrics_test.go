package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.DetectionOutcome("ok")
	m.DetectionOutcome("ok")
	m.DetectionOutcome("no_face")
	m.MoodDetected("happy")
	m.StaleDiscarded()
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	if got := testutil.ToFloat64(m.detections.WithLabelValues("ok")); got != 2 {
		t.Fatalf("ok detections: %v", got)
	}
	if got := testutil.ToFloat64(m.detections.WithLabelValues("no_face")); got != 1 {
		t.Fatalf("no_face detections: %v", got)
	}
	if got := testutil.ToFloat64(m.stale); got != 1 {
		t.Fatalf("stale: %v", got)
	}
	if got := testutil.ToFloat64(m.cache.WithLabelValues("miss")); got != 2 {
		t.Fatalf("cache misses: %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ModelsReady(true)
	m.MoodDetected("sad")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"moodmusic_models_ready 1",
		`moodmusic_moods_total{mood="sad"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
