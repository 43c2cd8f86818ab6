package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clausewise.app/review/common/llm"
	"clausewise.app/review/core/config"
	"clausewise.app/review/internal/service/task_tracker"
	"github.com/redis/go-redis/v9"
)

type ServicesConfig struct {
	Invoker        Invoker
	Tracker        task_tracker.Tracker // nil when no tracker is configured
	TrackerTimeout time.Duration
}

type Services struct {
	review ReviewService
}

func NewServices(cfg ServicesConfig) *Services {
	return &Services{
		review: NewReviewService(cfg.Invoker, cfg.Tracker, cfg.TrackerTimeout),
	}
}

func (s *Services) Review() ReviewService {
	return s.review
}

// Build constructs the remote clients named in cfg once and wires them into
// Services. The returned cleanup releases them.
func Build(ctx context.Context, cfg config.Config) (*Services, func(), error) {
	client, err := llm.NewClient(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating llm client: %w", err)
	}
	slog.InfoContext(ctx, "llm client ready",
		"provider", client.Provider(),
		"model", client.Model(),
		"timeout", cfg.LLM.Timeout)

	invoker := llm.NewInvoker(client, llm.InvokerConfig{
		Timeout:         cfg.LLM.Timeout,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})

	cleanup := func() {}
	tracker, err := newTracker(cfg.Tracker)
	if err != nil {
		return nil, nil, err
	}

	if tracker != nil && cfg.DirectoryCache.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.DirectoryCache.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing redis url: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		slog.InfoContext(ctx, "redis connected", "ttl", cfg.DirectoryCache.TTL)

		tracker = task_tracker.WithDirectoryCache(tracker, task_tracker.NewRedisCache(redisClient), cfg.DirectoryCache.TTL)
		cleanup = func() {
			if err := redisClient.Close(); err != nil {
				slog.Error("failed to close redis client", "error", err)
			}
		}
	}

	services := NewServices(ServicesConfig{
		Invoker:        invoker,
		Tracker:        tracker,
		TrackerTimeout: cfg.Tracker.Timeout,
	})
	return services, cleanup, nil
}

func newTracker(cfg config.TrackerConfig) (task_tracker.Tracker, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case config.TrackerNotion:
		return task_tracker.NewNotionTracker(cfg.Notion.Token, cfg.Notion.DatabaseID), nil
	case config.TrackerGitLab:
		tracker, err := task_tracker.NewGitLabTracker(cfg.GitLab.URL, cfg.GitLab.Token, cfg.GitLab.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("creating gitlab tracker: %w", err)
		}
		return tracker, nil
	default:
		return nil, fmt.Errorf("unsupported task tracker: %s", cfg.Provider)
	}
}
