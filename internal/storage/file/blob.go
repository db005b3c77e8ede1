package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/drakos74/free-data/internal/storage"
	"github.com/drakos74/free-data/internal/storage/file/json"
	"github.com/drakos74/free-data/internal/storage/tree"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Manifest describes a stored tree.
type Manifest struct {
	Key     string    `json:"key"`
	Entries []string  `json:"entries"`
	Created time.Time `json:"created"`
}

// BlobStorage stores trees as compressed files under <path>/<shard>/preprocessed.
type BlobStorage struct {
	path  string
	shard string
	debug bool
}

// BlobShard creates file backed storages under the given base directory.
func BlobShard(path string) storage.Shard {
	return func(shard string) (storage.Persistence, error) {
		return NewBlobStorage(path, shard, false), nil
	}
}

// NewBlobStorage creates a new file backed storage for the shard.
func NewBlobStorage(path, shard string, debug bool) *BlobStorage {
	return &BlobStorage{
		path:  path,
		shard: shard,
		debug: debug,
	}
}

// Dir returns the directory holding the stored trees.
func (s BlobStorage) Dir() string {
	return filepath.Join(s.path, s.shard, storage.PreprocessedDir)
}

func (s BlobStorage) Store(k storage.Key, value tree.Group) error {
	dir := s.Dir()
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not make dir: %s: %w", dir, err)
	}

	// write into a temporary file first, so that a crash never leaves a partial tree behind
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp", uuid.New().String()))
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("could not create file '%s': %w", tmp, err)
	}
	err = tree.Write(f, value)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not write tree '%s': %w", k.Path(), err)
	}

	p := filepath.Join(dir, k.Path())
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not move tree into '%s': %w", p, err)
	}

	err = json.Save(dir, k.Path(), Manifest{
		Key:     k.Path(),
		Entries: value.Names(),
		Created: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("could not write manifest for '%s': %w", k.Path(), err)
	}
	if s.debug {
		log.Info().Str("path", p).Strs("entries", value.Names()).Msg("stored tree")
	}
	return nil
}

func (s BlobStorage) Load(k storage.Key) (tree.Group, error) {
	p := filepath.Join(s.Dir(), k.Path())
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not find '%s': %w", p, storage.NotFoundErr)
		}
		return nil, fmt.Errorf("could not open '%s': %v: %w", p, err, storage.CouldNotLoadErr)
	}
	defer f.Close()

	g, err := tree.Read(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode '%s': %v: %w", p, err, storage.CouldNotLoadErr)
	}
	return g, nil
}

// Manifest loads the manifest written alongside the stored tree.
func (s BlobStorage) Manifest(k storage.Key) (Manifest, error) {
	var m Manifest
	err := json.Load(s.Dir(), k.Path(), &m)
	return m, err
}
