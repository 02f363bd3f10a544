package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/kana-sketch-mcp/internal/pipeline"
)

// DefaultMaxSessions bounds a Manager created with a non-positive limit.
const DefaultMaxSessions = 16

var (
	// ErrNotFound is returned for an unknown session id.
	ErrNotFound = errors.New("session not found")
	// ErrTooMany is returned by Open when the limit is reached.
	ErrTooMany = errors.New("too many open sessions")
)

// PipelineFactory builds the pipeline for a new session. Each session needs
// its own so that run tokens do not interfere across sessions.
type PipelineFactory func() *pipeline.Pipeline

// Manager owns the open sessions, keyed by random UUIDs.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	max      int
	defaults Options
	factory  PipelineFactory
	logger   *slog.Logger
}

// NewManager returns a manager that creates sessions from defaults and
// factory.
func NewManager(factory PipelineFactory, defaults Options, max int, logger *slog.Logger) *Manager {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if defaults.Logger == nil {
		defaults.Logger = logger
	}
	return &Manager{
		sessions: make(map[string]*Session),
		max:      max,
		defaults: defaults,
		factory:  factory,
		logger:   logger,
	}
}

// Open creates a session. Zero width and height use the defaults.
func (m *Manager) Open(width, height int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.max {
		return nil, fmt.Errorf("%w (limit %d)", ErrTooMany, m.max)
	}
	opts := m.defaults
	if width > 0 {
		opts.Width = width
	}
	if height > 0 {
		opts.Height = height
	}

	id := uuid.New().String()
	s, err := New(id, m.factory(), opts)
	if err != nil {
		return nil, err
	}
	m.sessions[id] = s
	m.logger.Info("session opened", "session", id, "width", opts.Width, "height", opts.Height)
	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Close closes and forgets a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Close()
	m.logger.Info("session closed", "session", id)
	return nil
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

// IDs returns the open session ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
