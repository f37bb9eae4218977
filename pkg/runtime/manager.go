package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eclane/open-typeform/pkg/identifier"
	"github.com/eclane/open-typeform/pkg/models"
)

// FormSource is the slice of the form store a session manager needs.
// *store.Store satisfies it.
type FormSource interface {
	ResponseSubmitter

	GetForm(ctx context.Context, id string) (*models.Form, error)
	IncrementViews(ctx context.Context, formID string) (int64, error)
}

// Manager tracks live filling sessions by id. Starting a session counts one
// view against the form; a session that is restarted or abandoned does not
// count again.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	source   FormSource
	logger   *slog.Logger
}

// NewManager creates a session manager backed by the given form source.
func NewManager(source FormSource, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		source:   source,
		logger:   logger.With("module", "session_manager"),
	}
}

// StartSession loads the form, counts the view and returns a fresh session
// positioned at the first question.
func (m *Manager) StartSession(ctx context.Context, formID string, metadata models.ResponseMetadata) (*Session, error) {
	form, err := m.source.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	session, err := NewSession(identifier.New(), form, m.source, metadata)
	if err != nil {
		return nil, err
	}

	views, err := m.source.IncrementViews(ctx, formID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "session started",
		"session_id", session.ID, "form_id", formID, "views", views)

	return session, nil
}

// Session returns the live session with the given id, or nil.
func (m *Manager) Session(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessions[id]
}

// EndSession drops a session from the manager. Ending an unknown session is
// a no-op.
func (m *Manager) EndSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
