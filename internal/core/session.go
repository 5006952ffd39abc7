package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"vyap-onboarding-go/internal/db"
	"vyap-onboarding-go/internal/identity"
	"vyap-onboarding-go/pkg/flagstore"
)

// DefaultSessionIdleTTL is how long an untouched device session is kept.
const DefaultSessionIdleTTL = 24 * time.Hour

// Session is the onboarding state of one client device.
type Session struct {
	DeviceID string
	Gate     *Gate

	mu       sync.Mutex
	editor   *Editor
	lastSeen time.Time
}

// SessionConfig wires a SessionManager.
type SessionConfig struct {
	Store     db.ProfileRepository
	Flags     flagstore.FlagStore
	Hooks     *Hooks
	Now       func() time.Time
	SnoozeFor time.Duration
	IdleTTL   time.Duration
	Logger    *zap.Logger
}

// SessionManager owns the per-device sessions and routes identity changes to them.
type SessionManager struct {
	cfg SessionConfig

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty manager.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultSessionIdleTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &SessionManager{cfg: cfg, sessions: make(map[string]*Session)}
}

// Session returns the session for deviceID, creating it on first use.
func (m *SessionManager) Session(deviceID string) *Session {
	now := m.cfg.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[deviceID]
	if !ok {
		s = &Session{
			DeviceID: deviceID,
			Gate: NewGate(GateConfig{
				DeviceID:  deviceID,
				Store:     m.cfg.Store,
				Flags:     m.cfg.Flags,
				Now:       m.cfg.Now,
				SnoozeFor: m.cfg.SnoozeFor,
				Hooks:     m.cfg.Hooks,
				Logger:    m.cfg.Logger,
			}),
		}
		m.sessions[deviceID] = s
		m.cfg.Hooks.sessionsChanged(len(m.sessions))
	}
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
	return s
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Subscribe attaches the manager to an identity feed.
func (m *SessionManager) Subscribe(feed *identity.Feed) (unsubscribe func()) {
	return feed.OnAuthStateChanged(m.handleChange)
}

func (m *SessionManager) handleChange(ctx context.Context, c identity.Change) {
	s := m.Session(c.DeviceID)
	s.dropEditorUnless(c.UserID)
	d := s.Gate.HandleIdentityChange(ctx, c.UserID)
	m.cfg.Logger.Debug("Identity change handled",
		zap.Uint64("seq", c.Seq),
		zap.String("deviceID", c.DeviceID),
		zap.String("userID", c.UserID),
		zap.String("outcome", string(d.Outcome)),
	)
}

// Editor returns the profile editor of deviceID for userID, loading it on first use.
func (m *SessionManager) Editor(ctx context.Context, deviceID, userID string) (*Editor, error) {
	s := m.Session(deviceID)

	s.mu.Lock()
	if s.editor != nil && s.editor.UserID() == userID {
		ed := s.editor
		s.mu.Unlock()
		return ed, nil
	}
	s.mu.Unlock()

	ed := NewEditor(EditorConfig{
		UserID:   userID,
		DeviceID: deviceID,
		Store:    m.cfg.Store,
		Hooks:    m.cfg.Hooks,
		Logger:   m.cfg.Logger,
	})
	if err := ed.Load(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor != nil && s.editor.UserID() == userID {
		return s.editor, nil
	}
	s.editor = ed
	return ed, nil
}

func (s *Session) dropEditorUnless(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor != nil && (userID == "" || s.editor.UserID() != userID) {
		s.editor = nil
	}
}

// EvictIdle removes sessions not touched since now-IdleTTL and returns how many went.
func (m *SessionManager) EvictIdle(now time.Time) int {
	cutoff := now.Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var evicted []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			evicted = append(evicted, s)
		}
	}
	if len(evicted) > 0 {
		m.cfg.Hooks.sessionsChanged(len(m.sessions))
	}
	m.mu.Unlock()

	for _, s := range evicted {
		s.Gate.Reset()
	}
	return len(evicted)
}

// Run evicts idle sessions periodically until ctx is cancelled.
func (m *SessionManager) Run(ctx context.Context) {
	interval := m.cfg.IdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(m.cfg.Now()); n > 0 {
				m.cfg.Logger.Info("Evicted idle onboarding sessions", zap.Int("count", n))
			}
		}
	}
}
