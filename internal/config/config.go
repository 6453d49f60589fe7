package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"gopkg.in/yaml.v3"
)

//go:embed moods.yaml
var moodsYAML []byte

// defaultKey names the phrase used for labels without an entry.
const defaultKey = "default"

type Config struct {
	YouTube  YouTubeConfig
	Ollama   OllamaConfig
	Detector DetectorConfig
	Cache    CacheConfig
	Sessions SessionConfig
	Worker   WorkerConfig
	Server   ServerConfig
	LogLevel string
	Queries  domain.QueryTable
}

type YouTubeConfig struct {
	APIKey       string
	OAuthToken   string // optional bearer token sent instead of relying on the key alone
	BaseURL      string // defaults to https://www.googleapis.com/youtube/v3
	MaxRetries   int    // total attempts, 1 means no retry
	RetryBackoff time.Duration
}

type OllamaConfig struct {
	Host            string // defaults to http://localhost:11434
	FaceModel       string
	ExpressionModel string
}

type DetectorConfig struct {
	InputSize      int
	ScoreThreshold float64
	LoadTimeout    time.Duration
	DetectTimeout  time.Duration
	SearchTimeout  time.Duration
}

type CacheConfig struct {
	DSN string        // SQLite path, :memory: keeps the cache in process
	TTL time.Duration // zero disables caching
}

type SessionConfig struct {
	TTL           time.Duration
	MaxFrameBytes int64
}

type WorkerConfig struct {
	Workers   int
	QueueSize int
}

type ServerConfig struct {
	Port int
}

// ErrMissingCredential is returned when neither an API key nor a token is set.
var ErrMissingCredential = errors.New("config: YOUTUBE_API_KEY or YOUTUBE_OAUTH_TOKEN is required")

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envNonNegativeInt is envInt that also accepts zero.
func envNonNegativeInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// Load reads the configuration from the environment. The phrase table starts
// from the embedded moods.yaml and is overlaid with MOOD_QUERIES_FILE when set.
func Load() (*Config, error) {
	queries, err := loadQueries(os.Getenv("MOOD_QUERIES_FILE"))
	if err != nil {
		return nil, err
	}

	return &Config{
		YouTube: YouTubeConfig{
			APIKey:       os.Getenv("YOUTUBE_API_KEY"),
			OAuthToken:   os.Getenv("YOUTUBE_OAUTH_TOKEN"),
			BaseURL:      envString("YOUTUBE_BASE_URL", "https://www.googleapis.com/youtube/v3"),
			MaxRetries:   envInt("YOUTUBE_MAX_RETRIES", 1),
			RetryBackoff: time.Duration(envInt("YOUTUBE_RETRY_BACKOFF_MS", 500)) * time.Millisecond,
		},
		Ollama: OllamaConfig{
			Host:            envString("OLLAMA_HOST", "http://localhost:11434"),
			FaceModel:       envString("FACE_MODEL", "tiny-face-detector"),
			ExpressionModel: envString("EXPRESSION_MODEL", "face-expression-net"),
		},
		Detector: DetectorConfig{
			InputSize:      envInt("DETECTOR_INPUT_SIZE", 416),
			ScoreThreshold: envFloat("DETECTOR_SCORE_THRESHOLD", 0.5),
			LoadTimeout:    time.Duration(envInt("MODEL_LOAD_TIMEOUT_SECONDS", 60)) * time.Second,
			DetectTimeout:  time.Duration(envInt("DETECT_TIMEOUT_SECONDS", 20)) * time.Second,
			SearchTimeout:  time.Duration(envInt("SEARCH_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Cache: CacheConfig{
			DSN: envString("CACHE_DSN", ":memory:"),
			TTL: time.Duration(envNonNegativeInt("CACHE_TTL_SECONDS", 600)) * time.Second,
		},
		Sessions: SessionConfig{
			TTL:           time.Duration(envInt("SESSION_TTL_MINUTES", 30)) * time.Minute,
			MaxFrameBytes: int64(envInt("MAX_FRAME_BYTES", 5<<20)),
		},
		Worker: WorkerConfig{
			Workers:   envInt("WORKERS", 2),
			QueueSize: envInt("QUEUE_SIZE", 32),
		},
		Server: ServerConfig{
			Port: envInt("PORT", 8080),
		},
		LogLevel: envString("LOG_LEVEL", "INFO"),
		Queries:  queries,
	}, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.YouTube.APIKey == "" && c.YouTube.OAuthToken == "" {
		return ErrMissingCredential
	}
	return nil
}

func loadQueries(path string) (domain.QueryTable, error) {
	var phrases map[string]string
	if err := yaml.Unmarshal(moodsYAML, &phrases); err != nil {
		panic("failed to unmarshal embedded moods.yaml: " + err.Error())
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.QueryTable{}, fmt.Errorf("config: read mood queries: %w", err)
		}
		var overrides map[string]string
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return domain.QueryTable{}, fmt.Errorf("config: parse mood queries %s: %w", path, err)
		}
		for k, v := range overrides {
			phrases[k] = v
		}
	}

	fallback := phrases[defaultKey]
	delete(phrases, defaultKey)

	table, err := domain.NewQueryTable(phrases, fallback)
	if err != nil {
		return domain.QueryTable{}, fmt.Errorf("config: mood queries: %w", err)
	}
	return table, nil
}
