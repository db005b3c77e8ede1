package storage

import (
	"fmt"

	"github.com/drakos74/free-data/internal/storage/tree"
)

// MockShard returns the same in-memory storage for every shard.
func MockShard(m *MockStorage) Shard {
	return func(shard string) (Persistence, error) {
		return m, nil
	}
}

// MockStorage keeps the trees in memory and counts the calls.
type MockStorage struct {
	Elements map[Key]tree.Group
	Stores   map[Key]int
	Loads    map[Key]int
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		Elements: make(map[Key]tree.Group),
		Stores:   make(map[Key]int),
		Loads:    make(map[Key]int),
	}
}

func (m *MockStorage) Store(k Key, value tree.Group) error {
	m.Stores[k]++
	m.Elements[k] = value
	return nil
}

func (m *MockStorage) Load(k Key) (tree.Group, error) {
	m.Loads[k]++
	if g, ok := m.Elements[k]; ok {
		return g, nil
	}
	return nil, fmt.Errorf("not found '%v': %w", k, NotFoundErr)
}
