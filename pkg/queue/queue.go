// Package queue builds the asynq client, server and scheduler from config.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/hostel-hunter/pkg/config"
	"github.com/hugh/hostel-hunter/pkg/util"
)

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	}
}

func NewClient(cfg *config.RedisConfig) *asynq.Client {
	return asynq.NewClient(redisOpt(cfg))
}

func NewServer(cfg *config.RedisConfig, concurrency int, logger *slog.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}

	return asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Warn("task failed", "type", task.Type(), "retry", retried, "max_retry", maxRetry, "error", err)
			}),
		},
	)
}

// NewScheduler returns a scheduler with task registered at cronSpec. The
// expression is checked up front so a typo fails at startup, not at first tick.
func NewScheduler(cfg *config.RedisConfig, cronSpec string, task *asynq.Task) (*asynq.Scheduler, error) {
	if err := util.ValidateCronExpr(cronSpec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cronSpec, err)
	}

	scheduler := asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register(cronSpec, task); err != nil {
		return nil, fmt.Errorf("registering %s: %w", task.Type(), err)
	}
	return scheduler, nil
}

func NewInspector(cfg *config.RedisConfig) *asynq.Inspector {
	return asynq.NewInspector(redisOpt(cfg))
}
