package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
)

func itemsJSON(ids ...string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf(`{"kind":"youtube#searchResult","id":{"kind":"youtube#video","videoId":%q},"snippet":{"title":"Title %s","channelTitle":"Channel"}}`, id, id))
	}
	return `{"items":[` + strings.Join(parts, ",") + `]}`
}

func TestClient_SearchVideos(t *testing.T) {
	tenIDs := []string{"v0", "v1", "v2", "v3", "v4", "v5", "v6", "v7", "v8", "v9"}

	tests := []struct {
		name         string
		status       int
		responseBody string
		wantIDs      []string
		wantErr      error
		wantAnyErr   bool
	}{
		{
			name:         "ten valid items in response order",
			status:       http.StatusOK,
			responseBody: itemsJSON(tenIDs...),
			wantIDs:      tenIDs,
		},
		{
			name:         "empty items",
			status:       http.StatusOK,
			responseBody: `{"items":[]}`,
			wantErr:      ports.ErrNoResults,
		},
		{
			name:         "items absent",
			status:       http.StatusOK,
			responseBody: `{"kind":"youtube#searchListResponse"}`,
			wantErr:      ports.ErrNoResults,
		},
		{
			name:         "items without video id are skipped",
			status:       http.StatusOK,
			responseBody: `{"items":[{"id":{"kind":"youtube#channel","channelId":"c1"}},{"id":{"kind":"youtube#video","videoId":"ok"}}]}`,
			wantIDs:      []string{"ok"},
		},
		{
			name:         "only non-video items",
			status:       http.StatusOK,
			responseBody: `{"items":[{"id":{"kind":"youtube#channel","channelId":"c1"}}]}`,
			wantErr:      ports.ErrNoResults,
		},
		{
			name:         "quota exceeded",
			status:       http.StatusForbidden,
			responseBody: `{"error":{"code":403,"message":"quotaExceeded"}}`,
			wantAnyErr:   true,
		},
		{
			name:         "malformed body",
			status:       http.StatusOK,
			responseBody: `{"items":[`,
			wantAnyErr:   true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery map[string]string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" || r.Method != http.MethodGet {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				gotQuery = map[string]string{}
				for k := range r.URL.Query() {
					gotQuery[k] = r.URL.Query().Get(k)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer srv.Close()

			client := NewClient(srv.Client(), Config{BaseURL: srv.URL, APIKey: "test-key"})
			videos, err := client.SearchVideos(context.Background(), "happy upbeat music")

			wantQuery := map[string]string{
				"part":       "snippet",
				"q":          "happy upbeat music",
				"type":       "video",
				"maxResults": "10",
				"key":        "test-key",
			}
			for k, v := range wantQuery {
				if gotQuery[k] != v {
					t.Fatalf("query param %s: got %q, want %q", k, gotQuery[k], v)
				}
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if tt.wantAnyErr {
				if err == nil {
					t.Fatalf("expected error, got videos %+v", videos)
				}
				if errors.Is(err, ports.ErrNoResults) {
					t.Fatalf("transport failure reported as no results: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(videos) != len(tt.wantIDs) {
				t.Fatalf("expected %d videos, got %d", len(tt.wantIDs), len(videos))
			}
			urls := domain.EmbedURLs(videos)
			for i, id := range tt.wantIDs {
				want := "https://www.youtube.com/embed/" + id + "?autoplay=0"
				if urls[i] != want {
					t.Fatalf("url %d: got %q, want %q", i, urls[i], want)
				}
			}
		})
	}
}

func TestClient_SearchVideos_OmitsEmptyKey(t *testing.T) {
	var hasKey bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasKey = r.URL.Query()["key"]
		_, _ = w.Write([]byte(itemsJSON("a")))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), Config{BaseURL: srv.URL})
	if _, err := client.SearchVideos(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasKey {
		t.Fatalf("key parameter sent without a configured key")
	}
}

func TestClient_SearchVideos_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	client := NewClient(nil, Config{BaseURL: baseURL, APIKey: "k"})
	_, err := client.SearchVideos(context.Background(), "q")
	if err == nil {
		t.Fatalf("expected error from closed server")
	}
	if errors.Is(err, ports.ErrNoResults) {
		t.Fatalf("network failure reported as no results: %v", err)
	}
}

func TestClient_SearchVideos_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.Client(), Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := client.SearchVideos(context.Background(), "q")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
