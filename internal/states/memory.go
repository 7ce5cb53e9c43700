package states

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meterhub/forecastd/internal/models"
)

// MemoryStore is an in-process Store keyed by entity ID. It is safe for
// concurrent use and hands out copies so callers hold true snapshots.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*models.State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*models.State)}
}

func (m *MemoryStore) Get(_ context.Context, entityID string) (*models.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[entityID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyState(state), nil
}

func (m *MemoryStore) Upsert(_ context.Context, state *models.State) error {
	stored := copyState(state)
	if stored.LastUpdated.IsZero() {
		stored.LastUpdated = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[stored.EntityID] = stored
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*models.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.State, 0, len(m.states))
	for _, state := range m.states {
		out = append(out, copyState(state))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// copyState deep-copies the attribute map one level down; entry values
// are decoded JSON that nothing mutates in place.
func copyState(s *models.State) *models.State {
	out := *s
	if s.Attributes != nil {
		out.Attributes = make(map[string]any, len(s.Attributes))
		for k, v := range s.Attributes {
			out.Attributes[k] = v
		}
	}
	return &out
}

// Compile-time interface implementation check
var _ Store = (*MemoryStore)(nil)
