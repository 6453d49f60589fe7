package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
)

// SearchVideos runs one search.list request for query, limited to videos.
// Items without a video id are skipped; when none remain the error wraps
// ports.ErrNoResults.
func (c *Client) SearchVideos(ctx context.Context, query string) ([]domain.Video, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	searchURL, err := c.searchURL(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("youtube adapter: failed to create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("youtube adapter: search request failed: %w", err)
	}
	defer resp.Body.Close()

	var body searchResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && body.Error != nil && body.Error.Message != "" {
			return nil, fmt.Errorf("youtube adapter: search status %d: %s", resp.StatusCode, body.Error.Message)
		}
		return nil, fmt.Errorf("youtube adapter: search status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("youtube adapter: search decode error: %w", decodeErr)
	}

	if len(body.Items) == 0 {
		c.log.Warnf("no results returned for query %q", query)
		return nil, fmt.Errorf("youtube adapter: query %q: %w", query, ports.ErrNoResults)
	}

	videos := make([]domain.Video, 0, len(body.Items))
	for i, item := range body.Items {
		if item.ID.VideoID == "" {
			c.log.Debugf("skipping item %d without video id (kind %q)", i, item.ID.Kind)
			continue
		}
		videos = append(videos, item.toDomain())
		if len(videos) == c.maxResults {
			break
		}
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("youtube adapter: query %q: no playable items: %w", query, ports.ErrNoResults)
	}

	return videos, nil
}

func (c *Client) searchURL(query string) (string, error) {
	u, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return "", fmt.Errorf("youtube adapter: invalid search url: %w", err)
	}

	q := u.Query()
	q.Set("part", "snippet")
	q.Set("q", query)
	q.Set("type", "video")
	q.Set("maxResults", strconv.Itoa(c.maxResults))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
