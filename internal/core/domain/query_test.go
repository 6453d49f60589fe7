package domain

import (
	"errors"
	"testing"
)

func TestQueryFor(t *testing.T) {
	tests := []struct {
		mood Mood
		want string
	}{
		{MoodHappy, "happy upbeat music"},
		{MoodSad, "soothing sad songs"},
		{MoodAngry, "calm instrumental music"},
		{MoodSurprised, "exciting pop songs"},
		{MoodFearful, "relaxing ambient sounds"},
		{MoodDisgusted, "mellow lo-fi tracks"},
		{MoodNeutral, "chill background music"},
		{Mood("bored"), "relaxing music"},
		{Mood(""), "relaxing music"},
		{Mood("HAPPY"), "relaxing music"},
	}

	table := DefaultQueryTable()
	for _, tc := range tests {
		tc := tc
		t.Run(string(tc.mood), func(t *testing.T) {
			if got := QueryFor(tc.mood); got != tc.want {
				t.Fatalf("QueryFor(%q) = %q, want %q", tc.mood, got, tc.want)
			}
			if got := table.QueryFor(tc.mood); got != tc.want {
				t.Fatalf("table.QueryFor(%q) = %q, want %q", tc.mood, got, tc.want)
			}
		})
	}
}

func TestQueryFor_TotalOverMoods(t *testing.T) {
	for _, m := range Moods {
		if QueryFor(m) == DefaultQuery {
			t.Fatalf("mood %q falls through to the default phrase", m)
		}
	}
}

func TestNewQueryTable(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		fallback  string
		mood      Mood
		want      string
		wantErr   error
	}{
		{
			name:      "override replaces phrase",
			overrides: map[string]string{"Sad": "rainy day jazz"},
			mood:      MoodSad,
			want:      "rainy day jazz",
		},
		{
			name:      "blank override keeps built-in phrase",
			overrides: map[string]string{"happy": "  "},
			mood:      MoodHappy,
			want:      "happy upbeat music",
		},
		{
			name:     "custom fallback",
			fallback: "lofi beats",
			mood:     Mood("bored"),
			want:     "lofi beats",
		},
		{
			name:      "unknown label rejected",
			overrides: map[string]string{"contempt": "metal"},
			wantErr:   ErrUnknownMood,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			table, err := NewQueryTable(tc.overrides, tc.fallback)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := table.QueryFor(tc.mood); got != tc.want {
				t.Fatalf("QueryFor(%q) = %q, want %q", tc.mood, got, tc.want)
			}
		})
	}
}

func TestEmbedURLs(t *testing.T) {
	videos := []Video{{ID: "abc123"}, {ID: "x_Y-9"}}
	got := EmbedURLs(videos)
	want := []string{
		"https://www.youtube.com/embed/abc123?autoplay=0",
		"https://www.youtube.com/embed/x_Y-9?autoplay=0",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d urls, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("url %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
