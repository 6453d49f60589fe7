package domain

import (
	"math"
	"strings"
)

// Mood is one of the seven expression labels the classifier reports.
type Mood string

const (
	MoodNeutral   Mood = "neutral"
	MoodHappy     Mood = "happy"
	MoodSad       Mood = "sad"
	MoodAngry     Mood = "angry"
	MoodFearful   Mood = "fearful"
	MoodDisgusted Mood = "disgusted"
	MoodSurprised Mood = "surprised"
)

// Moods lists the labels in the order the expression model reports them.
// Top uses this order to break ties.
var Moods = []Mood{
	MoodNeutral,
	MoodHappy,
	MoodSad,
	MoodAngry,
	MoodFearful,
	MoodDisgusted,
	MoodSurprised,
}

// ParseMood matches a label case-insensitively against the closed set.
func ParseMood(s string) (Mood, bool) {
	candidate := Mood(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range Moods {
		if m == candidate {
			return m, true
		}
	}
	return "", false
}

// Valid reports whether m belongs to the closed label set.
func (m Mood) Valid() bool {
	for _, known := range Moods {
		if known == m {
			return true
		}
	}
	return false
}

// ExpressionScore is a single label confidence in [0,1].
type ExpressionScore struct {
	Mood  Mood    `json:"mood"`
	Score float64 `json:"score"`
}

// Expressions holds classifier output in report order.
type Expressions []ExpressionScore

// NewExpressions builds Expressions from an unordered label map, normalizing
// the result into canonical label order. Unknown labels are dropped.
func NewExpressions(scores map[string]float64) Expressions {
	byMood := make(map[Mood]float64, len(scores))
	for label, score := range scores {
		if m, ok := ParseMood(label); ok {
			byMood[m] = score
		}
	}

	out := make(Expressions, 0, len(byMood))
	for _, m := range Moods {
		if score, ok := byMood[m]; ok {
			out = append(out, ExpressionScore{Mood: m, Score: score})
		}
	}
	return out
}

// Top returns the highest-scoring label with a linear scan. The first maximum
// wins, so ties resolve to the earliest entry. Entries that are NaN, outside
// [0,1] or carry an unknown label are skipped. ok is false when nothing usable
// remains.
func (e Expressions) Top() (mood Mood, score float64, ok bool) {
	for _, es := range e {
		if !es.Mood.Valid() {
			continue
		}
		if math.IsNaN(es.Score) || es.Score < 0 || es.Score > 1 {
			continue
		}
		if !ok || es.Score > score {
			mood, score, ok = es.Mood, es.Score, true
		}
	}
	return mood, score, ok
}

// Box is a face bounding box in coordinates normalized to the frame size.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the box covers no area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Clamp trims the box to the unit square.
func (b Box) Clamp() Box {
	x0 := clamp01(b.X)
	y0 := clamp01(b.Y)
	x1 := clamp01(b.X + b.Width)
	y1 := clamp01(b.Y + b.Height)
	return Box{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Detection is the per-frame result of single-face detection followed by
// expression classification.
type Detection struct {
	Score       float64     `json:"score"`
	Box         Box         `json:"box"`
	Expressions Expressions `json:"expressions"`
}

// DetectorOptions configures the face detector profile.
type DetectorOptions struct {
	InputSize      int
	ScoreThreshold float64
}

// TinyDetectorOptions is the lightweight detector profile.
func TinyDetectorOptions() DetectorOptions {
	return DetectorOptions{InputSize: 416, ScoreThreshold: 0.5}
}
