// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/planloop/planloop/internal/domain"
)

// Ensure mocks implement the domain ports.
var (
	_ domain.AgentService = (*MockAgentService)(nil)
	_ domain.Clock        = (*MockClock)(nil)
	_ domain.Logger       = NopLogger{}
)

// SendCall records one Send invocation.
type SendCall struct {
	SessionID string
	Role      string
	Text      string
}

// MockAgentService is an in-memory AgentService. Replies are scripted per
// instruction text; every session keeps a full transcript. Safe for
// concurrent use, matching the scheduler's fan-out.
type MockAgentService struct {
	mu sync.Mutex

	// Replies maps instruction text to the agent's reply. Instructions
	// without an entry get DefaultReply.
	Replies      map[string]string
	DefaultReply string

	// Error hooks. SendErr is keyed by instruction text.
	CreateErr error
	SendErr   map[string]error
	ListErr   error
	AbortErr  error

	Transcripts map[string][]domain.Message
	Titles      []string
	Aborted     []string
	SendCalls   []SendCall
	nextID      int
}

// NewMockAgentService returns an empty mock with no scripted replies.
func NewMockAgentService() *MockAgentService {
	return &MockAgentService{
		Replies:     make(map[string]string),
		SendErr:     make(map[string]error),
		Transcripts: make(map[string][]domain.Message),
	}
}

// CreateSession allocates "sess-1", "sess-2", ... in creation order.
func (m *MockAgentService) CreateSession(_ context.Context, title string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.nextID++
	id := fmt.Sprintf("sess-%d", m.nextID)
	m.Transcripts[id] = []domain.Message{}
	m.Titles = append(m.Titles, title)
	return id, nil
}

// Send appends the instruction and the scripted reply to the transcript.
func (m *MockAgentService) Send(_ context.Context, sessionID, role, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendCalls = append(m.SendCalls, SendCall{SessionID: sessionID, Role: role, Text: text})
	if err, ok := m.SendErr[text]; ok && err != nil {
		return err
	}
	if _, ok := m.Transcripts[sessionID]; !ok {
		return fmt.Errorf("unknown session %s", sessionID)
	}
	reply, ok := m.Replies[text]
	if !ok {
		reply = m.DefaultReply
	}
	m.Transcripts[sessionID] = append(m.Transcripts[sessionID],
		domain.Message{Role: role, Text: text},
		domain.Message{Role: "agent", Text: reply},
	)
	return nil
}

// ListMessages returns a copy of the session transcript.
func (m *MockAgentService) ListMessages(_ context.Context, sessionID string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	msgs, ok := m.Transcripts[sessionID]
	if !ok {
		return nil, fmt.Errorf("unknown session %s", sessionID)
	}
	return append([]domain.Message(nil), msgs...), nil
}

// Abort records the aborted session id.
func (m *MockAgentService) Abort(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AbortErr != nil {
		return m.AbortErr
	}
	m.Aborted = append(m.Aborted, sessionID)
	return nil
}

// SessionCount returns the number of sessions created so far.
func (m *MockAgentService) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID
}

// MockClock implements domain.Clock with a settable time.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (c *MockClock) Now() time.Time {
	return c.NowTime
}

// NopLogger discards all log entries.
type NopLogger struct{}

func (NopLogger) Debug(_, _, _ string) {}
func (NopLogger) Info(_, _, _ string)  {}
func (NopLogger) Warn(_, _, _ string)  {}
func (NopLogger) Error(_, _, _ string) {}
