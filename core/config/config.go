package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel           OTelConfig
	LLM            LLMConfig
	Tracker        TrackerConfig
	DirectoryCache DirectoryCacheConfig
	Env            string
	Port           string
	NodeID         int64
	MaxUploadBytes int64
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type LLMConfig struct {
	Provider        string // "gemini", "openai" or "anthropic"
	APIKey          string
	BaseURL         string // Optional: for custom endpoints
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration
}

type TrackerConfig struct {
	Provider string // "notion", "gitlab" or empty
	Timeout  time.Duration
	Notion   NotionConfig
	GitLab   GitLabConfig
}

type NotionConfig struct {
	Token      string
	DatabaseID string
}

type GitLabConfig struct {
	URL       string
	Token     string
	ProjectID string
}

type DirectoryCacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeCLI    ServiceType = "cli"
)

const (
	TrackerNotion = "notion"
	TrackerGitLab = "gitlab"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the HTTP server
//   - .env.cli for the review command
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("REVIEW_ENV", "development") == "development" {
		// Try service-specific env file first, fall back to .env
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:            getEnv("REVIEW_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		NodeID:         getEnvInt64("NODE_ID", 1),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 5<<20),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "clausewise-review"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		LLM: LLMConfig{
			Provider:        getEnv("LLM_PROVIDER", "gemini"),
			APIKey:          getEnv("LLM_API_KEY", getEnv("GEMINI_API_KEY", "")),
			BaseURL:         getEnv("LLM_BASE_URL", ""),
			Model:           getEnv("LLM_MODEL", ""),
			MaxOutputTokens: getEnvInt("LLM_MAX_OUTPUT_TOKENS", 4000),
			Timeout:         getEnvDuration("LLM_TIMEOUT", 15*time.Second),
		},
		Tracker: TrackerConfig{
			Provider: getEnv("TASK_TRACKER_PROVIDER", ""),
			Timeout:  getEnvDuration("TRACKER_TIMEOUT", 15*time.Second),
			Notion: NotionConfig{
				Token:      getEnv("NOTION_TOKEN", ""),
				DatabaseID: getEnv("NOTION_DATABASE_ID", ""),
			},
			GitLab: GitLabConfig{
				URL:       getEnv("GITLAB_URL", ""),
				Token:     getEnv("GITLAB_TOKEN", ""),
				ProjectID: getEnv("GITLAB_PROJECT_ID", ""),
			},
		},
		DirectoryCache: DirectoryCacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      getEnvDuration("DIRECTORY_CACHE_TTL", time.Hour),
		},
	}

	if cfg.LLM.APIKey == "" {
		return Config{}, fmt.Errorf("LLM_API_KEY (or GEMINI_API_KEY) is required")
	}

	switch cfg.Tracker.Provider {
	case "":
	case TrackerNotion:
		if !cfg.Tracker.Notion.Enabled() {
			return Config{}, fmt.Errorf("NOTION_TOKEN and NOTION_DATABASE_ID are required for the notion tracker")
		}
	case TrackerGitLab:
		if !cfg.Tracker.GitLab.Enabled() {
			return Config{}, fmt.Errorf("GITLAB_TOKEN and GITLAB_PROJECT_ID are required for the gitlab tracker")
		}
	default:
		return Config{}, fmt.Errorf("unsupported TASK_TRACKER_PROVIDER: %s", cfg.Tracker.Provider)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c TrackerConfig) Enabled() bool {
	return c.Provider != ""
}

func (c NotionConfig) Enabled() bool {
	return c.Token != "" && c.DatabaseID != ""
}

func (c GitLabConfig) Enabled() bool {
	return c.Token != "" && c.ProjectID != ""
}

func (c DirectoryCacheConfig) Enabled() bool {
	return c.RedisURL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("15s") or plain milliseconds ("15000").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
