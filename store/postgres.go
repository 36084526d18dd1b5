package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	// PostgreSQL driver
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/isdmx/gradebox/practice"
)

// Schema is the table the Postgres repository expects
const Schema = `
	CREATE TABLE IF NOT EXISTS practice_sessions (
		id         TEXT PRIMARY KEY,
		learner_id TEXT NOT NULL,
		course_id  TEXT NOT NULL,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// Postgres stores sessions as JSONB rows. Updates lock the row with
// SELECT ... FOR UPDATE for the duration of the transaction.
type Postgres struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgres creates a Postgres repository over an existing pool
func NewPostgres(db *sqlx.DB, logger *zap.Logger) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger,
	}
}

// OpenPostgres connects, pings and creates the table if needed
func OpenPostgres(ctx context.Context, logger *zap.Logger, dsn string) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	p := NewPostgres(db, logger)
	if err := p.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("connected to postgres")
	return p, nil
}

// EnsureSchema creates the sessions table if it does not exist
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveSession upserts a snapshot of session
func (p *Postgres) SaveSession(ctx context.Context, session *practice.PracticeSession) error {
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	query := `
		INSERT INTO practice_sessions (id, learner_id, course_id, body, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := p.db.ExecContext(ctx, query, session.ID, session.LearnerID, session.CourseID, string(body)); err != nil {
		p.logger.Error("failed to save session", zap.String("session_id", session.ID), zap.Error(err))
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession loads a session snapshot
func (p *Postgres) GetSession(ctx context.Context, sessionID string) (*practice.PracticeSession, error) {
	var body []byte
	err := p.db.GetContext(ctx, &body, `SELECT body FROM practice_sessions WHERE id = $1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeSession(body)
}

// UpdateQuestion applies update while holding the session row lock
func (p *Postgres) UpdateQuestion(ctx context.Context, sessionID, questionID string, update func(*practice.Question) error) error {
	return p.mutate(ctx, sessionID, func(session *practice.PracticeSession) error {
		return updateQuestion(session, questionID, update)
	})
}

// RecordSubmission appends record while holding the session row lock
func (p *Postgres) RecordSubmission(ctx context.Context, sessionID, questionID string, record practice.SubmissionRecord) error {
	return p.UpdateQuestion(ctx, sessionID, questionID, appendSubmission(record))
}

func (p *Postgres) mutate(ctx context.Context, sessionID string, fn func(*practice.PracticeSession) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var body []byte
	err = tx.GetContext(ctx, &body, `SELECT body FROM practice_sessions WHERE id = $1 FOR UPDATE`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to lock session: %w", err)
	}

	session, err := decodeSession(body)
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
	if _, err := tx.ExecContext(ctx, `UPDATE practice_sessions SET body = $2, updated_at = now() WHERE id = $1`, sessionID, string(out)); err != nil {
		p.logger.Error("failed to update session", zap.String("session_id", sessionID), zap.Error(err))
		return fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session update: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (p *Postgres) Close() error {
	return p.db.Close()
}
