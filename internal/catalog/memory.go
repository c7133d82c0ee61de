package catalog

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Repository, used by the terminal station and in tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewMemory(entries ...*Entry) *Memory {
	m := &Memory{entries: make(map[string]*Entry, len(entries))}
	for _, e := range entries {
		m.entries[e.ID] = e.Clone()
	}

	return m
}

func (m *Memory) GetEntry(_ context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}

	return e.Clone(), nil
}

func (m *Memory) ListEntries(_ context.Context) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e.Clone())
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}

		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

func (m *Memory) UpsertEntries(_ context.Context, entries []*Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		m.entries[e.ID] = e.Clone()
	}

	return nil
}
