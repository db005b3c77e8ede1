package weight

import (
	"fmt"
	"time"

	"github.com/drakos74/free-data/internal/key"
	"github.com/drakos74/free-data/internal/metrics"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/drakos74/free-data/internal/storage"
	"github.com/drakos74/free-data/internal/storage/tree"
	"github.com/rs/zerolog/log"
)

const weights = "weights"

// Store caches the feature weights of a dataset.
type Store struct {
	storage storage.Persistence
	keys    key.Builder
}

// NewStore creates a new weight cache.
func NewStore(persistence storage.Persistence, keys key.Builder) *Store {
	return &Store{
		storage: persistence,
		keys:    keys,
	}
}

// Weights loads the weights for the method, or computes and stores them on a miss.
// Weights are stored regardless of how long they took to compute.
func (s *Store) Weights(method string, values *sparse.Matrix) ([]float64, error) {
	k := s.keys.Weights(method)
	g, err := s.storage.Load(k)
	if err == nil {
		if ww, ok := g.Floats(weights); ok {
			metrics.Observer.Cache(weights, metrics.Hit)
			return ww, nil
		}
		log.Warn().Str("key", k.Path()).Msg("cached weights without content")
	} else if !storage.IsMiss(err) {
		return nil, fmt.Errorf("could not load weights '%s': %w", k.Path(), err)
	}
	metrics.Observer.Cache(weights, metrics.Miss)

	start := time.Now()
	ww, err := Compute(method, values)
	if err != nil {
		return nil, fmt.Errorf("could not compute weights '%s': %w", method, err)
	}
	log.Info().Str("method", method).Int("features", len(ww)).Dur("duration", time.Since(start)).Msg("computed weights")

	err = s.storage.Store(k, tree.Group{weights: tree.Floats(ww)})
	if err != nil {
		return nil, fmt.Errorf("could not store weights '%s': %w", k.Path(), err)
	}
	metrics.Observer.Cache(weights, metrics.Stored)
	return ww, nil
}
