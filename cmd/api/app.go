package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/adapters/memory"
	"github.com/ewilliams-labs/moodmusic/internal/adapters/ollama"
	"github.com/ewilliams-labs/moodmusic/internal/adapters/sqlite"
	"github.com/ewilliams-labs/moodmusic/internal/adapters/youtube"
	"github.com/ewilliams-labs/moodmusic/internal/config"
	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
	"github.com/ewilliams-labs/moodmusic/internal/core/services"
	"github.com/ewilliams-labs/moodmusic/internal/logger"
	"github.com/ewilliams-labs/moodmusic/internal/metrics"
	"golang.org/x/oauth2"
)

// app holds the wired adapters and core service shared by every command.
type app struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	sessions *memory.SessionStore
	cache    *sqlite.Adapter
	loader   *services.ModelLoader
	svc      *services.Orchestrator
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.Init(level, os.Stderr)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:      cfg,
		metrics:  metrics.New(),
		sessions: memory.NewSessionStore(cfg.Sessions.TTL),
	}

	// -- YouTube adapter
	var httpClient *http.Client
	if cfg.YouTube.OAuthToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.YouTube.OAuthToken, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(ctx, src)
	}
	var searcher ports.MusicSearcher = youtube.NewClient(httpClient, youtube.Config{
		BaseURL:      cfg.YouTube.BaseURL,
		APIKey:       cfg.YouTube.APIKey,
		MaxRetries:   cfg.YouTube.MaxRetries,
		RetryBackoff: cfg.YouTube.RetryBackoff,
		Timeout:      cfg.Detector.SearchTimeout,
	})

	// -- Search cache
	if cfg.Cache.TTL > 0 {
		cache, err := sqlite.NewAdapter(cfg.Cache.DSN, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize search cache: %w", err)
		}
		a.cache = cache
		searcher = sqlite.NewCachedSearcher(searcher, cache, a.metrics)
	}

	// -- Detector adapter
	detector := ollama.NewClient(ollama.Config{
		BaseURL:         cfg.Ollama.Host,
		FaceModel:       cfg.Ollama.FaceModel,
		ExpressionModel: cfg.Ollama.ExpressionModel,
		Options: domain.DetectorOptions{
			InputSize:      cfg.Detector.InputSize,
			ScoreThreshold: cfg.Detector.ScoreThreshold,
		},
		Timeout: cfg.Detector.DetectTimeout,
	})

	a.loader = services.NewModelLoader(detector, cfg.Detector.LoadTimeout, a.metrics)
	a.svc = services.NewOrchestrator(detector, searcher, a.sessions, a.loader, services.Config{
		Queries:       cfg.Queries,
		DetectTimeout: cfg.Detector.DetectTimeout,
		SearchTimeout: cfg.Detector.SearchTimeout,
	}, a.metrics)
	return a, nil
}

// janitor drops idle sessions and expired cache rows until ctx ends.
func (a *app) janitor(ctx context.Context, every time.Duration) {
	log := logger.New("janitor")
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.Sweep(); n > 0 {
				log.Debugf("dropped %d idle sessions", n)
			}
			if a.cache != nil {
				if n, err := a.cache.Purge(ctx); err != nil {
					log.Warnf("purge search cache: %v", err)
				} else if n > 0 {
					log.Debugf("purged %d cached searches", n)
				}
			}
		}
	}
}

func (a *app) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}
