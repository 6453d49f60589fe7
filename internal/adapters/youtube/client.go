// Package youtube implements the music search port against the YouTube Data API v3.
package youtube

import (
	"net/http"
	"strings"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
	"github.com/ewilliams-labs/moodmusic/internal/logger"
)

const (
	DefaultBaseURL    = "https://www.googleapis.com/youtube/v3"
	DefaultMaxResults = 10
)

// Config carries the credential and request shape. The key is injected here
// rather than read from the environment so tests can substitute it freely.
type Config struct {
	BaseURL      string
	APIKey       string
	MaxResults   int
	MaxRetries   int
	RetryBackoff time.Duration
	Timeout      time.Duration
}

// Client is an HTTP client for the YouTube adapter.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	maxResults  int
	maxRetries  int
	baseBackoff time.Duration
	timeout     time.Duration
	log         *logger.Logger
}

// compile-time interface assertion
var _ ports.MusicSearcher = (*Client)(nil)

// NewClient constructs a YouTube client. A nil httpClient uses http.DefaultClient;
// pass an oauth2 client to authenticate with a bearer token instead of a key.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 || maxResults > 50 {
		maxResults = DefaultMaxResults
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		maxResults:  maxResults,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.RetryBackoff,
		timeout:     cfg.Timeout,
		log:         logger.New("youtube adapter"),
	}
}
