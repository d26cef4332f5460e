// Package history keeps the chat transcript of one session.
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/RichardoC/aipro/internal/models"
)

// Store persists turns for the lifetime of a session. Turns must come back
// in insertion order.
type Store interface {
	AppendTurn(sessionID string, turn models.Turn) error
	Turns(sessionID string) ([]models.Turn, error)
	ClearTurns(sessionID string) error
}

// History is an append-only (with explicit Clear) log of turns. It does not
// enforce user/assistant alternation.
type History struct {
	mu        sync.Mutex
	sessionID string
	store     Store
}

func New(sessionID string, store Store) *History {
	if store == nil {
		store = NewMemoryStore()
	}
	return &History{sessionID: sessionID, store: store}
}

func (h *History) SessionID() string { return h.sessionID }

func (h *History) Append(role models.Role, text string) (models.Turn, error) {
	turn := models.Turn{Role: role, Text: text, CreatedAt: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.AppendTurn(h.sessionID, turn); err != nil {
		return models.Turn{}, fmt.Errorf("failed to append %s turn: %w", role, err)
	}
	return turn, nil
}

func (h *History) Turns() ([]models.Turn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	turns, err := h.store.Turns(h.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	return turns, nil
}

// RecentWindow returns the last n turns oldest first, or all of them
// when fewer than n exist.
func (h *History) RecentWindow(n int) ([]models.Turn, error) {
	turns, err := h.Turns()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []models.Turn{}, nil
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns, nil
}

func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.ClearTurns(h.sessionID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (h *History) Counts() (models.Counts, error) {
	turns, err := h.Turns()
	if err != nil {
		return models.Counts{}, err
	}
	return models.CountTurns(turns), nil
}
