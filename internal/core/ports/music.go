package ports

import (
	"context"
	"errors"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
)

// ErrNoResults indicates the search answered but carried no playable videos.
var ErrNoResults = errors.New("no results")

// MusicSearcher finds music videos for a free-text phrase.
type MusicSearcher interface {
	SearchVideos(ctx context.Context, query string) ([]domain.Video, error)
}

// SearchCache stores search hits by query phrase.
type SearchCache interface {
	Get(ctx context.Context, query string) ([]domain.Video, bool, error)
	Put(ctx context.Context, query string, videos []domain.Video) error
}
