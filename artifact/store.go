package artifact

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbitalml/transit/contract"
	"github.com/orbitalml/transit/pkg/errors"
	translog "github.com/orbitalml/transit/pkg/log"
)

// Store serves validated bundles out of a base directory laid out as one
// subdirectory per variant (<base>/kepler, <base>/tess, <base>/tess-full).
//
// Concurrent first requests for a variant collapse into a single load.
// Load failures are sticky: callers keep getting the original error
// without hitting the filesystem again.
type Store struct {
	base   string
	logger zerolog.Logger
	cells  map[contract.Variant]*cell
}

type cell struct {
	once   sync.Once
	bundle *Bundle
	err    error
}

// NewStore creates a store over the given artifact base directory.
func NewStore(base string, logger zerolog.Logger) *Store {
	cells := make(map[contract.Variant]*cell, len(contract.Variants()))
	for _, v := range contract.Variants() {
		cells[v] = &cell{}
	}
	return &Store{base: base, logger: logger, cells: cells}
}

// Get returns the bundle for a variant, loading it on first use.
func (s *Store) Get(v contract.Variant) (*Bundle, error) {
	c, ok := s.cells[v]
	if !ok {
		return nil, errors.Newf("transit: no artifacts for variant %q", v)
	}
	c.once.Do(func() {
		dir := filepath.Join(s.base, v.String())
		start := time.Now()
		c.bundle, c.err = LoadBundle(dir, v)
		if c.err != nil {
			s.logger.Error().
				Str(translog.VariantKey, v.String()).
				Str("dir", dir).
				Err(c.err).
				Msg("artifact bundle load failed")
			return
		}
		ev := s.logger.Info().
			Str(translog.VariantKey, v.String()).
			Str("model_version", c.bundle.Meta.ModelVersion).
			Int(translog.FeaturesKey, len(c.bundle.Meta.FeatureOrder)).
			Int64(translog.DurationMsKey, time.Since(start).Milliseconds())
		if c.bundle.Degraded() {
			ev = ev.Bool("degraded_labels", true)
		}
		ev.Msg("artifact bundle loaded")
	})
	return c.bundle, c.err
}

// Preload eagerly loads the given variants (all of them when none are
// named) and returns the first failure.
func (s *Store) Preload(variants ...contract.Variant) error {
	if len(variants) == 0 {
		variants = contract.Variants()
	}
	for _, v := range variants {
		if _, err := s.Get(v); err != nil {
			return err
		}
	}
	return nil
}
