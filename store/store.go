// Package store provides practice session repositories.
//
// Three backends are available: an in-process map, Redis and PostgreSQL.
// All of them keep whole sessions as JSON snapshots and hand callers deep
// copies only.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/isdmx/gradebox/config"
	"github.com/isdmx/gradebox/practice"
)

// Store is a practice.Repository that holds external resources
type Store interface {
	practice.Repository
	Close() error
}

// New opens the repository selected by storage.backend
func New(ctx context.Context, logger *zap.Logger, cfg *config.Config) (Store, error) {
	logger = logger.Named("store")

	switch cfg.Storage.Backend {
	case "memory":
		return NewMemory(), nil
	case "redis":
		return OpenRedis(ctx, logger, cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB)
	case "postgres":
		return OpenPostgres(ctx, logger, cfg.Storage.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// updateQuestion runs update against a copy of the question and writes the
// copy back only when update succeeds.
func updateQuestion(session *practice.PracticeSession, questionID string, update func(*practice.Question) error) error {
	q, ok := session.Question(questionID)
	if !ok {
		return fmt.Errorf("%w: %s", practice.ErrQuestionNotFound, questionID)
	}
	working := q.Clone()
	if err := update(&working); err != nil {
		return err
	}
	*q = working
	return nil
}

func appendSubmission(record practice.SubmissionRecord) func(*practice.Question) error {
	return func(q *practice.Question) error {
		q.Submissions = append(q.Submissions, record.Clone())
		return nil
	}
}

func notFound(sessionID string) error {
	return fmt.Errorf("%w: %s", practice.ErrSessionNotFound, sessionID)
}
