package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/visionize/internal/content"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/notify"
)

var ErrNotFound = errors.New("session: not found")

// CloseReason tells a close hook why a session went away.
type CloseReason string

const (
	ClosedByUser     CloseReason = "deleted"
	ClosedIdle       CloseReason = "idle"
	ClosedOnShutdown CloseReason = "shutdown"
)

// ManagerConfig holds the per-session defaults and the clock settings.
type ManagerConfig struct {
	TickInterval  time.Duration
	IdleTimeout   time.Duration
	SwitchSeconds int
	CorrectDelay  time.Duration
	WrongDelay    time.Duration
}

// Hooks observe every session the manager owns. Any of them may be nil.
// OnChange and OnActivity run on the session goroutine and must not block.
type Hooks struct {
	OnCreate   func(s *Session)
	OnClose    func(s *Session, reason CloseReason)
	OnChange   func(state models.SessionState)
	OnActivity func(a models.Activity)
}

// Manager owns the live sessions and the one clock that ticks them all.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	content  *content.Provider
	notifier notify.Notifier
	cfg      ManagerConfig
	hooks    Hooks
	log      *logger.Logger
	now      func() time.Time
}

// ManagerOption tweaks a Manager.
type ManagerOption func(*Manager)

// WithNotifier sets the notifier shared by every session.
func WithNotifier(n notify.Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = n }
}

func WithHooks(h Hooks) ManagerOption {
	return func(m *Manager) { m.hooks = h }
}

func WithLogger(l *logger.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// WithClock replaces time.Now, for idle eviction tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func NewManager(provider *content.Provider, cfg ManagerConfig, opts ...ManagerOption) *Manager {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	m := &Manager{
		sessions: make(map[string]*Session),
		content:  provider,
		cfg:      cfg,
		log:      logger.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithPrefix("sessions")
	return m
}

// Create starts a new session with a fresh id.
func (m *Manager) Create() (*Session, error) {
	s, err := New(Options{
		ID:            uuid.NewString(),
		Content:       m.content,
		Notifier:      m.notifier,
		SwitchSeconds: m.cfg.SwitchSeconds,
		CorrectDelay:  m.cfg.CorrectDelay,
		WrongDelay:    m.cfg.WrongDelay,
		Logger:        m.log,
		OnChange:      m.hooks.OnChange,
		OnActivity:    m.hooks.OnActivity,
		Now:           m.now,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.log.Info("created session %s (%d live)", s.ID(), count)
	if m.hooks.OnCreate != nil {
		m.hooks.OnCreate(s)
	}
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete closes and forgets the session.
func (m *Manager) Delete(id string) error {
	return m.remove(id, ClosedByUser)
}

func (m *Manager) remove(id string, reason CloseReason) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	s.Close()
	m.log.Info("closed session %s (%s)", id, reason)
	if m.hooks.OnClose != nil {
		m.hooks.OnClose(s, reason)
	}
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs lists the live session ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (m *Manager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// TickAll delivers one clock pulse to every session.
func (m *Manager) TickAll() {
	for _, s := range m.snapshot() {
		if !s.Tick() {
			m.log.Warn("dropped tick for session %s", s.ID())
		}
	}
}

// EvictIdle closes sessions whose last command is older than the idle
// timeout. A zero timeout disables eviction.
func (m *Manager) EvictIdle() []string {
	if m.cfg.IdleTimeout <= 0 {
		return nil
	}
	cutoff := m.now().Add(-m.cfg.IdleTimeout)
	var evicted []string
	for _, s := range m.snapshot() {
		if s.LastSeen().Before(cutoff) {
			if err := m.remove(s.ID(), ClosedIdle); err == nil {
				evicted = append(evicted, s.ID())
			}
		}
	}
	return evicted
}

// Run drives the clock until ctx is done, then closes every session.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()
	m.log.Info("clock started (interval %v, idle timeout %v)", m.cfg.TickInterval, m.cfg.IdleTimeout)

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			m.log.Info("clock stopped")
			return
		case <-ticker.C:
			m.TickAll()
			if evicted := m.EvictIdle(); len(evicted) > 0 {
				m.log.Info("evicted %d idle sessions", len(evicted))
			}
		}
	}
}

// CloseAll closes every live session.
func (m *Manager) CloseAll() {
	for _, id := range m.IDs() {
		_ = m.remove(id, ClosedOnShutdown)
	}
}
