package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/choraleia/filebrowser/pkg/config"
	"github.com/choraleia/filebrowser/pkg/event"
	"github.com/choraleia/filebrowser/pkg/models"
	"github.com/choraleia/filebrowser/pkg/utils"
)

// SessionManager owns the open browsing sessions, keyed by id.
type SessionManager struct {
	registry *FSRegistry
	cfg      *config.AppConfig
	emitter  *event.Emitter

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager(cfg *config.AppConfig, registry *FSRegistry, emitter *event.Emitter) *SessionManager {
	if emitter == nil {
		emitter = event.Global()
	}
	return &SessionManager{
		registry: registry,
		cfg:      cfg,
		emitter:  emitter,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session on endpoint, positioned at the backend root.
func (m *SessionManager) Create(ctx context.Context, endpoint string) (*Session, error) {
	name, err := m.registry.ResolveEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	fs, err := m.registry.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open filesystem %s: %w", name, err)
	}

	sess := NewSession(fs, SessionOptions{
		ID:              uuid.New().String(),
		Endpoint:        name,
		StatConcurrency: m.cfg.StatConcurrency(),
		Emitter:         m.emitter,
	})

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()

	utils.GetLogger().Info("session created", "session", sess.ID(), "endpoint", name)
	m.emitter.Emit(event.SessionCreatedEvent{SessionID: sess.ID(), Endpoint: name})
	return sess, nil
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// List returns all sessions, oldest first.
func (m *SessionManager) List() []models.SessionInfo {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]models.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	utils.GetLogger().Info("session closed", "session", id)
	m.emitter.Emit(event.SessionClosedEvent{SessionID: id})
	return nil
}

// Endpoints lists the endpoint names a session can be created on.
func (m *SessionManager) Endpoints() []string {
	return m.registry.Endpoints()
}
