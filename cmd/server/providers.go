package main

import (
	"context"
	"errors"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/isdmx/gradebox/config"
	"github.com/isdmx/gradebox/evaluator"
	"github.com/isdmx/gradebox/grading"
	"github.com/isdmx/gradebox/judge"
	"github.com/isdmx/gradebox/logger"
	"github.com/isdmx/gradebox/mcpserver"
	"github.com/isdmx/gradebox/practice"
	"github.com/isdmx/gradebox/questionbank"
	"github.com/isdmx/gradebox/store"
)

func newEngine(log *zap.Logger, cfg *config.Config, client *judge.Client) *grading.Engine {
	return grading.NewEngine(logger.Component(log, "grading"), client, grading.WithBatch(cfg.Judge.BatchEnabled))
}

func newStore(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config) (store.Store, error) {
	st, err := store.New(context.Background(), logger.Component(log, "store"), cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return st.Close()
		},
	})
	return st, nil
}

// newQuestionBank loads the configured bank; a missing file leaves it empty
func newQuestionBank(log *zap.Logger, cfg *config.Config) (*questionbank.Bank, error) {
	bank, err := questionbank.Load(cfg.Practice.QuestionBank)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("question bank not found, sessions need explicit questions",
			zap.String("path", cfg.Practice.QuestionBank))
		return questionbank.Empty(), nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("question bank loaded", zap.Strings("courses", bank.CourseIDs()))
	return bank, nil
}

func newPracticeService(
	log *zap.Logger,
	cfg *config.Config,
	repo store.Store,
	engine *grading.Engine,
	client *judge.Client,
	ev *evaluator.Client,
) *practice.Service {
	return practice.NewService(logger.Component(log, "practice"), repo, engine, client, ev,
		practice.WithMaxHints(cfg.Practice.MaxHints))
}

func newMCPServer(
	cfg *config.Config,
	log *zap.Logger,
	svc *practice.Service,
	client *judge.Client,
	bank *questionbank.Bank,
) (*mcpserver.MCPServer, error) {
	return mcpserver.New(cfg, logger.Component(log, "mcpserver"), svc, client, bank)
}
