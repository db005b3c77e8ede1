package storage

import (
	"errors"
	"fmt"

	"github.com/drakos74/free-data/internal/storage/tree"
)

const (
	OriginalDir     = "original"
	PreprocessedDir = "preprocessed"
)

var (
	// DefaultDir is the base directory for all datasets.
	DefaultDir = "data"
)

// Shard creates a new storage implementation for the given shard.
type Shard func(shard string) (Persistence, error)

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
)

// Key is the storage key of a cached tree.
type Key struct {
	Name string `json:"name"`
	Ext  string `json:"ext"`
}

// Path returns the file name of the key.
func (k Key) Path() string {
	return fmt.Sprintf("%s%s", k.Name, k.Ext)
}

func (k Key) String() string {
	return k.Path()
}

// Persistence stores and loads cache trees.
type Persistence interface {
	Store(k Key, value tree.Group) error
	Load(k Key) (tree.Group, error)
}

// IsMiss checks if the error only signals an absent entry.
func IsMiss(err error) bool {
	return errors.Is(err, NotFoundErr)
}
