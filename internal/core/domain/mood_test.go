package domain

import (
	"math"
	"testing"
)

func TestExpressions_Top(t *testing.T) {
	tests := []struct {
		name      string
		exprs     Expressions
		wantMood  Mood
		wantScore float64
		wantOK    bool
	}{
		{
			name: "unique maximum",
			exprs: Expressions{
				{Mood: MoodNeutral, Score: 0.1},
				{Mood: MoodHappy, Score: 0.7},
				{Mood: MoodSad, Score: 0.2},
			},
			wantMood:  MoodHappy,
			wantScore: 0.7,
			wantOK:    true,
		},
		{
			name: "tie resolves to first in order",
			exprs: Expressions{
				{Mood: MoodNeutral, Score: 0.05},
				{Mood: MoodSad, Score: 0.45},
				{Mood: MoodAngry, Score: 0.45},
				{Mood: MoodSurprised, Score: 0.05},
			},
			wantMood:  MoodSad,
			wantScore: 0.45,
			wantOK:    true,
		},
		{
			name: "skips NaN and out of range scores",
			exprs: Expressions{
				{Mood: MoodHappy, Score: math.NaN()},
				{Mood: MoodSad, Score: 1.5},
				{Mood: MoodFearful, Score: -0.1},
				{Mood: MoodDisgusted, Score: 0.3},
			},
			wantMood:  MoodDisgusted,
			wantScore: 0.3,
			wantOK:    true,
		},
		{
			name: "skips unknown labels",
			exprs: Expressions{
				{Mood: Mood("bored"), Score: 0.9},
				{Mood: MoodNeutral, Score: 0.1},
			},
			wantMood:  MoodNeutral,
			wantScore: 0.1,
			wantOK:    true,
		},
		{
			name:   "empty",
			exprs:  Expressions{},
			wantOK: false,
		},
		{
			name:   "all unusable",
			exprs:  Expressions{{Mood: MoodHappy, Score: math.NaN()}},
			wantOK: false,
		},
		{
			name: "all zero picks first entry",
			exprs: Expressions{
				{Mood: MoodNeutral, Score: 0},
				{Mood: MoodHappy, Score: 0},
			},
			wantMood:  MoodNeutral,
			wantScore: 0,
			wantOK:    true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			mood, score, ok := tc.exprs.Top()
			if ok != tc.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if mood != tc.wantMood {
				t.Fatalf("mood: got %q, want %q", mood, tc.wantMood)
			}
			if score != tc.wantScore {
				t.Fatalf("score: got %v, want %v", score, tc.wantScore)
			}
		})
	}
}

func TestNewExpressions_CanonicalOrder(t *testing.T) {
	exprs := NewExpressions(map[string]float64{
		"surprised": 0.4,
		"Neutral":   0.4,
		"happy":     0.1,
		"confused":  0.9,
	})

	want := []Mood{MoodNeutral, MoodHappy, MoodSurprised}
	if len(exprs) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(exprs), exprs)
	}
	for i, m := range want {
		if exprs[i].Mood != m {
			t.Fatalf("entry %d: got %q, want %q", i, exprs[i].Mood, m)
		}
	}

	// The same tie always resolves to neutral, whatever the map iteration order.
	for i := 0; i < 20; i++ {
		mood, _, _ := NewExpressions(map[string]float64{"surprised": 0.4, "neutral": 0.4}).Top()
		if mood != MoodNeutral {
			t.Fatalf("tie-break not deterministic: got %q", mood)
		}
	}
}

func TestParseMood(t *testing.T) {
	for _, m := range Moods {
		got, ok := ParseMood(" " + string(m) + " ")
		if !ok || got != m {
			t.Fatalf("ParseMood(%q) = %q, %v", m, got, ok)
		}
	}
	if _, ok := ParseMood("contempt"); ok {
		t.Fatalf("expected contempt to be rejected")
	}
}

func TestBox_Clamp(t *testing.T) {
	b := Box{X: -0.1, Y: 0.5, Width: 0.5, Height: 0.8}.Clamp()
	if b.X != 0 || b.Y != 0.5 {
		t.Fatalf("origin not clamped: %+v", b)
	}
	if math.Abs(b.Width-0.4) > 1e-9 || math.Abs(b.Height-0.5) > 1e-9 {
		t.Fatalf("size not clamped: %+v", b)
	}
	if (Box{Width: 0, Height: 1}).Empty() != true {
		t.Fatalf("zero width box should be empty")
	}
}
