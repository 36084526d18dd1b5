package store

import (
	"context"
	"sync"

	"github.com/isdmx/gradebox/practice"
)

// Memory keeps sessions in process memory
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*practice.PracticeSession
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*practice.PracticeSession)}
}

// SaveSession stores a copy of session, replacing any previous snapshot
func (m *Memory) SaveSession(_ context.Context, session *practice.PracticeSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session.Clone()
	return nil
}

// GetSession returns a copy of the stored session
func (m *Memory) GetSession(_ context.Context, sessionID string) (*practice.PracticeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, notFound(sessionID)
	}
	return session.Clone(), nil
}

// UpdateQuestion applies update atomically
func (m *Memory) UpdateQuestion(_ context.Context, sessionID, questionID string, update func(*practice.Question) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return notFound(sessionID)
	}
	return updateQuestion(session, questionID, update)
}

// RecordSubmission appends a copy of record to the question's history
func (m *Memory) RecordSubmission(ctx context.Context, sessionID, questionID string, record practice.SubmissionRecord) error {
	return m.UpdateQuestion(ctx, sessionID, questionID, appendSubmission(record))
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}
