package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultQuery is used for labels outside the phrase table.
const DefaultQuery = "relaxing music"

// EmbedBaseURL is the player URL prefix for a video id.
const EmbedBaseURL = "https://www.youtube.com/embed/"

// ErrUnknownMood is returned when a phrase override names a label outside the closed set.
var ErrUnknownMood = errors.New("domain: unknown mood")

var defaultPhrases = map[Mood]string{
	MoodHappy:     "happy upbeat music",
	MoodSad:       "soothing sad songs",
	MoodAngry:     "calm instrumental music",
	MoodSurprised: "exciting pop songs",
	MoodFearful:   "relaxing ambient sounds",
	MoodDisgusted: "mellow lo-fi tracks",
	MoodNeutral:   "chill background music",
}

// QueryTable maps mood labels to search phrases.
type QueryTable struct {
	phrases  map[Mood]string
	fallback string
}

// DefaultQueryTable returns the built-in phrase table.
func DefaultQueryTable() QueryTable {
	phrases := make(map[Mood]string, len(defaultPhrases))
	for m, p := range defaultPhrases {
		phrases[m] = p
	}
	return QueryTable{phrases: phrases, fallback: DefaultQuery}
}

// NewQueryTable overlays overrides onto the built-in table. Keys must be mood
// labels; blank phrases are ignored. An empty fallback keeps DefaultQuery.
func NewQueryTable(overrides map[string]string, fallback string) (QueryTable, error) {
	table := DefaultQueryTable()
	for label, phrase := range overrides {
		m, ok := ParseMood(label)
		if !ok {
			return QueryTable{}, fmt.Errorf("%w: %q", ErrUnknownMood, label)
		}
		if p := strings.TrimSpace(phrase); p != "" {
			table.phrases[m] = p
		}
	}
	if f := strings.TrimSpace(fallback); f != "" {
		table.fallback = f
	}
	return table, nil
}

// IsZero reports whether t was never built by DefaultQueryTable or NewQueryTable.
func (t QueryTable) IsZero() bool {
	return t.phrases == nil
}

// QueryFor returns the search phrase for m.
func (t QueryTable) QueryFor(m Mood) string {
	if p, ok := t.phrases[m]; ok {
		return p
	}
	if t.fallback == "" {
		return DefaultQuery
	}
	return t.fallback
}

// QueryFor maps m through the built-in table.
func QueryFor(m Mood) string {
	if p, ok := defaultPhrases[m]; ok {
		return p
	}
	return DefaultQuery
}

// Video is a single search hit.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	ChannelTitle string `json:"channel_title,omitempty"`
}

// EmbedURL returns the non-autoplaying player URL for the video.
func (v Video) EmbedURL() string {
	return EmbedURL(v.ID)
}

// EmbedURL builds the player URL for a video id.
func EmbedURL(id string) string {
	return EmbedBaseURL + url.PathEscape(id) + "?autoplay=0"
}

// EmbedURLs converts videos to player URLs, preserving order.
func EmbedURLs(videos []Video) []string {
	urls := make([]string, 0, len(videos))
	for _, v := range videos {
		urls = append(urls, v.EmbedURL())
	}
	return urls
}
