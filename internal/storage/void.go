package storage

import (
	"fmt"

	"github.com/drakos74/free-data/internal/storage/tree"
)

// VoidStorage is a noop storage
type VoidStorage struct {
}

func (d VoidStorage) Store(k Key, value tree.Group) error {
	return nil
}

func (d VoidStorage) Load(k Key) (tree.Group, error) {
	return nil, fmt.Errorf("not found '%v': %w", k, NotFoundErr)
}

// NewVoidStorage creates a new noop storage
func NewVoidStorage() *VoidStorage {
	return &VoidStorage{}
}

// VoidShard creates a new noop shard
func VoidShard() Shard {
	return func(shard string) (Persistence, error) {
		return NewVoidStorage(), nil
	}
}
