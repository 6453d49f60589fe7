package youtube

import "github.com/ewilliams-labs/moodmusic/internal/core/domain"

// searchResponse is the subset of a search.list response we read.
type searchResponse struct {
	Items []searchItem `json:"items"`
	Error *apiError    `json:"error,omitempty"`
}

type searchItem struct {
	Kind string `json:"kind"`
	ID   struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toDomain converts a search item to a domain.Video.
func (it searchItem) toDomain() domain.Video {
	return domain.Video{
		ID:           it.ID.VideoID,
		Title:        it.Snippet.Title,
		ChannelTitle: it.Snippet.ChannelTitle,
	}
}
