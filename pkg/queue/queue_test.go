package queue

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/hugh/hostel-hunter/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_RejectsBadCron(t *testing.T) {
	cfg := &config.RedisConfig{Host: "localhost", Port: 6379}

	_, err := NewScheduler(cfg, "every hour", asynq.NewTask("maintenance:test", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestRedisOpt(t *testing.T) {
	opt := redisOpt(&config.RedisConfig{Host: "redis", Port: 6380, Password: "secret"})
	assert.Equal(t, "redis:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
}
