package history

import (
	"sync"

	"github.com/RichardoC/aipro/internal/models"
)

type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]models.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]models.Turn)}
}

func (m *MemoryStore) AppendTurn(sessionID string, turn models.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[sessionID] = append(m.turns[sessionID], turn)
	return nil
}

func (m *MemoryStore) Turns(sessionID string) ([]models.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Turn, len(m.turns[sessionID]))
	copy(out, m.turns[sessionID])
	return out, nil
}

func (m *MemoryStore) ClearTurns(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, sessionID)
	return nil
}

// DeleteSession drops everything held for sessionID.
func (m *MemoryStore) DeleteSession(sessionID string) error {
	return m.ClearTurns(sessionID)
}

func (m *MemoryStore) Close() error { return nil }
