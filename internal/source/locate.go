package source

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/drakos74/free-data/internal/model"
	"github.com/rs/zerolog/log"
)

var (
	ErrManualResource      = errors.New("data set files have to be manually placed in the original directory")
	ErrResourceUnavailable = errors.New("data set resource is not available")
)

// Paths maps a role and a subset kind to a local file.
// An empty path marks a resource that does not exist.
type Paths map[string]map[string]string

// Get returns the path for the role and kind, if present.
func (p Paths) Get(role, kind string) (string, bool) {
	kinds, ok := p[role]
	if !ok {
		return "", false
	}
	f, ok := kinds[kind]
	return f, ok && f != ""
}

// Fetcher retrieves a remote resource into a local file.
type Fetcher interface {
	Fetch(url, path string) error
}

// FileName returns the local file name of a resource, keeping the extension of its location.
func FileName(d Descriptor, role, kind, location string) string {
	base := path.Base(location)
	ext := ""
	if i := strings.Index(base, "."); i >= 0 {
		ext = base[i:]
	}
	return fmt.Sprintf("%s-%s-%s%s", model.Normalise(d.Title), role, kind, ext)
}

// Locate resolves the local files of the dataset resources within the directory.
// Missing files are retrieved with the fetcher.
func Locate(d Descriptor, directory string, fetcher Fetcher) (Paths, error) {
	paths := make(Paths, len(d.Resources))
	for role, kinds := range d.Resources {
		paths[role] = make(map[string]string, len(kinds))
		for kind, location := range kinds {
			if location == "" {
				paths[role][kind] = ""
				continue
			}
			p := filepath.Join(directory, FileName(d, role, kind, location))
			paths[role][kind] = p
			if _, err := os.Stat(p); err == nil {
				continue
			}
			if strings.HasPrefix(location, ".") {
				return nil, fmt.Errorf("'%s': %w", p, ErrManualResource)
			}
			if fetcher == nil {
				return nil, fmt.Errorf("'%s' from '%s': %w", p, location, ErrResourceUnavailable)
			}
			if err := os.MkdirAll(directory, os.ModePerm); err != nil {
				return nil, fmt.Errorf("could not make dir: %s: %w", directory, err)
			}
			log.Info().Str("role", role).Str("kind", kind).Str("location", location).Msg("fetching resource")
			if err := fetcher.Fetch(location, p); err != nil {
				return nil, fmt.Errorf("could not fetch '%s': %v: %w", location, err, ErrResourceUnavailable)
			}
		}
	}
	return paths, nil
}
