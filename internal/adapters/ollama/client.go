// Package ollama provides an adapter for an Ollama-compatible vision model
// service. It implements the expression detector port by sending frames to a
// face detection model and then a facial-expression model, parsing their
// structured JSON answers into domain detections.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
	"github.com/ewilliams-labs/moodmusic/internal/logger"
)

const (
	defaultBaseURL         = "http://localhost:11434"
	defaultFaceModel       = "tiny-face-detector"
	defaultExpressionModel = "face-expression-net"
	defaultKeepAlive       = "30m"
)

// Config names the two models and the detector profile.
type Config struct {
	BaseURL         string
	FaceModel       string
	ExpressionModel string
	Options         domain.DetectorOptions
	Timeout         time.Duration
}

// Client talks to an Ollama-compatible service and implements ports.ExpressionDetector.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	faceModel       string
	expressionModel string
	options         domain.DetectorOptions
	loaded          atomic.Bool
	log             *logger.Logger
}

var _ ports.ExpressionDetector = (*Client)(nil)

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

type loadRequest struct {
	Model     string `json:"model"`
	KeepAlive string `json:"keep_alive,omitempty"`
	Stream    bool   `json:"stream"`
}

type loadResponse struct {
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// NewClient constructs a Client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	faceModel := cfg.FaceModel
	if faceModel == "" {
		faceModel = defaultFaceModel
	}
	expressionModel := cfg.ExpressionModel
	if expressionModel == "" {
		expressionModel = defaultExpressionModel
	}
	opts := cfg.Options
	defaults := domain.TinyDetectorOptions()
	if opts.InputSize <= 0 {
		opts.InputSize = defaults.InputSize
	}
	if opts.ScoreThreshold <= 0 || opts.ScoreThreshold > 1 {
		opts.ScoreThreshold = defaults.ScoreThreshold
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:         baseURL,
		faceModel:       faceModel,
		expressionModel: expressionModel,
		options:         opts,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: logger.New("ollama"),
	}
}

// LoadModels asks the service to load the face model, then the expression
// model. The first failure is returned as a *ports.ModelLoadError.
func (c *Client) LoadModels(ctx context.Context) error {
	for _, model := range []string{c.faceModel, c.expressionModel} {
		if err := c.loadModel(ctx, model); err != nil {
			return &ports.ModelLoadError{Model: model, Err: err}
		}
		c.log.Infof("model %s loaded", model)
	}
	c.loaded.Store(true)
	return nil
}

func (c *Client) loadModel(ctx context.Context, model string) error {
	body, err := json.Marshal(loadRequest{Model: model, KeepAlive: defaultKeepAlive})
	if err != nil {
		return fmt.Errorf("ollama: marshal load request: %w", err)
	}

	var parsed loadResponse
	if err := c.post(ctx, "/api/generate", body, &parsed); err != nil {
		return err
	}
	if parsed.Error != "" {
		return fmt.Errorf("ollama: %s", parsed.Error)
	}
	return nil
}

// chat sends one system+user exchange with an attached image and returns the
// assistant content.
func (c *Client) chat(ctx context.Context, model, system, user string, image string) (string, error) {
	payload := chatRequest{
		Model:  model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user, Images: []string{image}},
		},
		Options: &chatOptions{Temperature: 0},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	var parsed chatResponse
	if err := c.post(ctx, "/api/chat", body, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama: %s", parsed.Error)
	}

	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return "", fmt.Errorf("ollama: empty response")
	}
	return content, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			return fmt.Errorf("ollama: unexpected status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode response: %w", err)
	}
	return nil
}
