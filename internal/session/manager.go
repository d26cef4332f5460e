// Package session owns the per-user state that lives between requests:
// the chat history and the most recent downloadable results.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RichardoC/aipro/internal/history"
	"github.com/RichardoC/aipro/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("session not found")

const DefaultTTL = 30 * time.Minute

// Store is a history.Store that can also drop a whole session.
type Store interface {
	history.Store
	DeleteSession(sessionID string) error
}

// Download is a result kept so the browser can fetch it as a file.
type Download struct {
	models.Artifact
	Text string
}

type Session struct {
	ID      string
	History *history.History

	// chatMu serializes chat exchanges so a user turn and its reply are
	// never interleaved with another exchange.
	chatMu sync.Mutex

	mu        sync.Mutex
	lastSeen  time.Time
	ended     bool
	downloads map[models.TaskMode]Download
}

// Ended reports whether the session was ended or expired. Callers holding
// the chat lock see a stable answer.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// LockChat blocks until no other chat exchange is running on s.
func (s *Session) LockChat() (unlock func()) {
	s.chatMu.Lock()
	return s.chatMu.Unlock
}

func (s *Session) SetDownload(mode models.TaskMode, d Download) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads[mode] = d
}

func (s *Session) Download(mode models.TaskMode) (Download, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.downloads[mode]
	return d, ok
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    Store
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewManager(store Store, ttl time.Duration, logger *zap.Logger) *Manager {
	if store == nil {
		store = history.NewMemoryStore()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := &Session{
		ID:        id,
		History:   history.New(id, m.store),
		lastSeen:  m.now(),
		downloads: make(map[models.TaskMode]Download),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Debug("session created", zap.String("session", id))
	return s
}

// Get returns a live session and marks it as used. Expired sessions are
// ended and reported as ErrNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	now := m.now()
	if now.Sub(s.idleSince()) > m.ttl {
		if err := m.End(id); err != nil {
			m.logger.Warn("failed to end expired session", zap.String("session", id), zap.Error(err))
		}
		return nil, ErrNotFound
	}
	s.touch(now)
	return s, nil
}

// GetOrCreate returns the session for id, or a new one when id is unknown
// or expired. created reports which happened.
func (m *Manager) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, err := m.Get(id); err == nil {
			return s, false
		}
	}
	return m.Create(), true
}

// End discards the session and its stored turns.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	// Wait for a running chat exchange so its turns are deleted too.
	unlock := s.LockChat()
	defer unlock()
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()

	m.logger.Debug("session ended", zap.String("session", id))
	return m.store.DeleteSession(id)
}

// Sweep ends every session idle for longer than the TTL and reports how
// many were ended.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.ttl {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	n := 0
	for _, id := range expired {
		if err := m.End(id); err != nil && !errors.Is(err, ErrNotFound) {
			m.logger.Warn("failed to end expired session", zap.String("session", id), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

// Run sweeps on every tick until ctx is done. A non-positive interval
// sweeps once a minute.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("expired sessions removed", zap.Int("count", n))
			}
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
