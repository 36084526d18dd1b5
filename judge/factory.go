package judge

import (
	"go.uber.org/zap"

	"github.com/isdmx/gradebox/config"
)

// NewClientFromConfig creates a judge client from the judge configuration section
func NewClientFromConfig(logger *zap.Logger, cfg *config.Config) *Client {
	clientConfig := Config{
		BaseURL:          cfg.Judge.BaseURL,
		APIKey:           cfg.Judge.APIKey,
		RequestTimeout:   cfg.RequestTimeout(),
		PollInterval:     cfg.PollInterval(),
		MaxPollAttempts:  cfg.Judge.MaxPollAttempts,
		SubmitAttempts:   cfg.Judge.SubmitAttempts,
		CPUTimeLimitSec:  cfg.Judge.CPUTimeLimitSec,
		WallTimeLimitSec: cfg.Judge.WallTimeLimitSec,
		MemoryLimitKB:    cfg.Judge.MemoryLimitKB,
		ParallelPolling:  cfg.Judge.ParallelPolling,
		MaxParallelPolls: cfg.Judge.MaxParallelPolls,
	}

	return NewClient(logger.Named("judge"), &clientConfig)
}
