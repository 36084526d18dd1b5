package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: "http",
			HTTPPort:  8080,
		},
		Judge: JudgeConfig{
			BaseURL:           "http://judge:2358",
			RequestTimeoutSec: 15,
			PollIntervalMS:    1000,
			MaxPollAttempts:   30,
			SubmitAttempts:    3,
			CPUTimeLimitSec:   5,
			WallTimeLimitSec:  10,
			MemoryLimitKB:     128000,
			BatchEnabled:      true,
		},
		Practice: PracticeConfig{
			MaxHints: 3,
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Logging: LoggingConfig{
			Mode:  "production",
			Level: "info",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		require.NoError(t, validConfig().validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"InvalidServerTransport", func(c *Config) { c.Server.Transport = "invalid" }, "invalid server.transport"},
		{"MissingJudgeURL", func(c *Config) { c.Judge.BaseURL = "" }, "judge.base_url must be set"},
		{"InvalidPollInterval", func(c *Config) { c.Judge.PollIntervalMS = 0 }, "judge.poll_interval_ms must be positive"},
		{"InvalidPollAttempts", func(c *Config) { c.Judge.MaxPollAttempts = -1 }, "judge.max_poll_attempts must be positive"},
		{"InvalidSubmitAttempts", func(c *Config) { c.Judge.SubmitAttempts = 0 }, "judge.submit_attempts must be positive"},
		{"InvalidTimeLimit", func(c *Config) { c.Judge.WallTimeLimitSec = 0 }, "judge time limits must be positive"},
		{"InvalidMemoryLimit", func(c *Config) { c.Judge.MemoryLimitKB = 0 }, "judge.memory_limit_kb must be positive"},
		{"ParallelWithoutBound", func(c *Config) {
			c.Judge.ParallelPolling = true
			c.Judge.MaxParallelPolls = 0
		}, "judge.max_parallel_polls must be positive"},
		{"InvalidMaxHints", func(c *Config) { c.Practice.MaxHints = 0 }, "practice.max_hints must be positive"},
		{"UnknownBackend", func(c *Config) { c.Storage.Backend = "mongo" }, "unsupported storage.backend"},
		{"RedisWithoutAddr", func(c *Config) { c.Storage.Backend = "redis" }, "storage.redis_addr must be set"},
		{"PostgresWithoutDSN", func(c *Config) { c.Storage.Backend = "postgres" }, "storage.postgres_dsn must be set"},
		{"InvalidLoggingMode", func(c *Config) { c.Logging.Mode = "invalid_mode" }, "invalid logging.mode"},
		{"InvalidLogLevel", func(c *Config) { c.Logging.Level = "invalid_level" }, "invalid logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("ValidRedisBackend", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Backend = "redis"
		cfg.Storage.RedisAddr = "localhost:6379"
		require.NoError(t, cfg.validate())
	})
}

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.NoError(t, cfg.validate())

	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, 30, cfg.Judge.MaxPollAttempts)
	assert.Equal(t, 1000, cfg.Judge.PollIntervalMS)
	assert.Equal(t, 3, cfg.Practice.MaxHints)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.False(t, cfg.Judge.ParallelPolling)
	assert.Equal(t, time.Second, cfg.PollInterval())
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout())
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv("PRACTICE_PRACTICE_MAX_HINTS", "5")
	t.Setenv("PRACTICE_JUDGE_BASE_URL", "http://judge.internal:2358")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Practice.MaxHints)
	assert.Equal(t, "http://judge.internal:2358", cfg.Judge.BaseURL)
}
