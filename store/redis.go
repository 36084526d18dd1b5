package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/isdmx/gradebox/practice"
)

const (
	sessionKeyPrefix = "practice:session:"
	maxTxRetries     = 32
)

// Redis stores each session as a JSON string. Updates are optimistic
// WATCH/MULTI transactions retried on conflict.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// RedisOption defines a functional option for Redis
type RedisOption func(*Redis)

// WithTTL expires sessions after d of inactivity. Zero keeps them forever.
func WithTTL(d time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = d
	}
}

// NewRedis creates a Redis repository over an existing client
func NewRedis(client *redis.Client, logger *zap.Logger, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		logger: logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// OpenRedis connects to Redis and verifies the connection
func OpenRedis(ctx context.Context, logger *zap.Logger, addr, password string, db int, opts ...RedisOption) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", addr), zap.Int("db", db))
	return NewRedis(client, logger, opts...), nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// SaveSession stores a snapshot of session
func (r *Redis) SaveSession(ctx context.Context, session *practice.PracticeSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), data, r.ttl).Err(); err != nil {
		r.logger.Error("failed to save session", zap.String("session_id", session.ID), zap.Error(err))
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession loads a session snapshot
func (r *Redis) GetSession(ctx context.Context, sessionID string) (*practice.PracticeSession, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeSession(data)
}

// UpdateQuestion applies update inside an optimistic transaction
func (r *Redis) UpdateQuestion(ctx context.Context, sessionID, questionID string, update func(*practice.Question) error) error {
	return r.mutate(ctx, sessionID, func(session *practice.PracticeSession) error {
		return updateQuestion(session, questionID, update)
	})
}

// RecordSubmission appends record inside an optimistic transaction
func (r *Redis) RecordSubmission(ctx context.Context, sessionID, questionID string, record practice.SubmissionRecord) error {
	return r.UpdateQuestion(ctx, sessionID, questionID, appendSubmission(record))
}

// mutate reads, changes and writes one session under WATCH. fn may run
// more than once when other writers race us.
func (r *Redis) mutate(ctx context.Context, sessionID string, fn func(*practice.PracticeSession) error) error {
	key := sessionKey(sessionID)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return notFound(sessionID)
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		session, err := decodeSession(data)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}

		out, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		r.logger.Debug("session changed concurrently, retrying",
			zap.String("session_id", sessionID),
			zap.Int("attempt", attempt))
	}
	return fmt.Errorf("failed to update session %s: too many concurrent writers", sessionID)
}

// Close closes the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}

func decodeSession(data []byte) (*practice.PracticeSession, error) {
	var session practice.PracticeSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}
