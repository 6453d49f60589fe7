package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
)

func newTestAdapter(t *testing.T, ttl time.Duration) (*Adapter, *time.Time) {
	t.Helper()
	a, err := NewAdapter(":memory:", ttl)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	now := time.Unix(1_700_000_000, 0)
	a.now = func() time.Time { return now }
	return a, &now
}

func TestAdapter_GetPut(t *testing.T) {
	videos := []domain.Video{{ID: "v1", Title: "One"}, {ID: "v2", Title: "Two"}}

	tests := []struct {
		name    string
		ttl     time.Duration
		advance time.Duration
		store   bool
		wantHit bool
	}{
		{name: "miss on empty cache", ttl: time.Minute, wantHit: false},
		{name: "hit within ttl", ttl: time.Minute, store: true, advance: 30 * time.Second, wantHit: true},
		{name: "miss after ttl", ttl: time.Minute, store: true, advance: 2 * time.Minute, wantHit: false},
		{name: "no expiry without ttl", ttl: 0, store: true, advance: 24 * time.Hour, wantHit: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			a, now := newTestAdapter(t, tt.ttl)
			ctx := context.Background()
			if tt.store {
				if err := a.Put(ctx, "chill background music", videos); err != nil {
					t.Fatalf("put: %v", err)
				}
			}
			*now = now.Add(tt.advance)

			got, hit, err := a.Get(ctx, "chill background music")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if hit != tt.wantHit {
				t.Fatalf("hit: got %v, want %v", hit, tt.wantHit)
			}
			if hit && !reflect.DeepEqual(got, videos) {
				t.Fatalf("videos: got %+v, want %+v", got, videos)
			}
		})
	}
}

func TestAdapter_PutReplaces(t *testing.T) {
	a, _ := newTestAdapter(t, time.Minute)
	ctx := context.Background()
	if err := a.Put(ctx, "q", []domain.Video{{ID: "old"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := a.Put(ctx, "q", []domain.Video{{ID: "new"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, hit, err := a.Get(ctx, "q")
	if err != nil || !hit {
		t.Fatalf("get: hit=%v err=%v", hit, err)
	}
	if len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("entry not replaced: %+v", got)
	}
}

func TestAdapter_Purge(t *testing.T) {
	a, now := newTestAdapter(t, time.Minute)
	ctx := context.Background()
	if err := a.Put(ctx, "old", []domain.Video{{ID: "a"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	*now = now.Add(2 * time.Minute)
	if err := a.Put(ctx, "fresh", []domain.Video{{ID: "b"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	n, err := a.Purge(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d rows, want 1", n)
	}
	if _, hit, _ := a.Get(ctx, "fresh"); !hit {
		t.Fatalf("fresh entry purged")
	}
}

type stubSearcher struct {
	calls  int
	videos []domain.Video
	err    error
}

func (s *stubSearcher) SearchVideos(ctx context.Context, query string) ([]domain.Video, error) {
	s.calls++
	return s.videos, s.err
}

type countingObserver struct{ hits, misses int }

func (o *countingObserver) CacheLookup(hit bool) {
	if hit {
		o.hits++
		return
	}
	o.misses++
}

func TestCachedSearcher(t *testing.T) {
	a, _ := newTestAdapter(t, time.Minute)
	next := &stubSearcher{videos: []domain.Video{{ID: "v1"}}}
	obs := &countingObserver{}
	s := NewCachedSearcher(next, a, obs)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := s.SearchVideos(ctx, "happy upbeat music")
		if err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
		if len(got) != 1 || got[0].ID != "v1" {
			t.Fatalf("search %d: got %+v", i, got)
		}
	}
	if next.calls != 1 {
		t.Fatalf("upstream called %d times, want 1", next.calls)
	}
	if obs.misses != 1 || obs.hits != 2 {
		t.Fatalf("observer: hits=%d misses=%d", obs.hits, obs.misses)
	}
}

func TestCachedSearcher_ErrorsNotCached(t *testing.T) {
	a, _ := newTestAdapter(t, time.Minute)
	next := &stubSearcher{err: ports.ErrNoResults}
	s := NewCachedSearcher(next, a, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.SearchVideos(ctx, "q"); !errors.Is(err, ports.ErrNoResults) {
			t.Fatalf("expected ErrNoResults, got %v", err)
		}
	}
	if next.calls != 2 {
		t.Fatalf("failed searches were cached: %d upstream calls", next.calls)
	}
}
