package baseline

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"uraniborg-lab/internal/domain/models"
	"uraniborg-lab/internal/metrics"
	"uraniborg-lab/pkg/logger"
)

// datasets maps API levels to the reference build they are compared with
var datasets = map[int]string{
	24: "N-AOSP",
	25: "N-AOSP",
	26: "O-AOSP",
	27: "O-AOSP",
	28: "P-AOSP",
	29: "Q-GSI",
	30: "R-GSI",
	31: "S-GSI",
	33: "T-GSI",
}

// DatasetFor returns the dataset name of an API level
func DatasetFor(apiLevel int) (string, bool) {
	d, ok := datasets[apiLevel]
	return d, ok
}

// SupportedAPILevels lists the API levels with a baseline, ascending
func SupportedAPILevels() []int {
	return slices.Sorted(maps.Keys(datasets))
}

// Store loads baseline references lazily and keeps one instance per API level
type Store struct {
	src    Source
	logger *logger.Logger

	mu     sync.RWMutex
	refs   map[int]*Reference
	flight singleflight.Group
}

// NewStore creates a store reading from src
func NewStore(src Source, log *logger.Logger) *Store {
	return &Store{
		src:    src,
		logger: log.WithComponent("baseline-store"),
		refs:   make(map[int]*Reference),
	}
}

// Get returns the reference for an API level, loading it on first use.
// Every call for the same level returns the same instance.
func (s *Store) Get(ctx context.Context, apiLevel int) (*Reference, error) {
	dataset, ok := DatasetFor(apiLevel)
	if !ok {
		return nil, &models.ConfigurationError{APILevel: apiLevel, Err: models.ErrUnsupportedAPILevel}
	}

	s.mu.RLock()
	ref, ok := s.refs[apiLevel]
	s.mu.RUnlock()
	if ok {
		return ref, nil
	}

	v, err, _ := s.flight.Do(strconv.Itoa(apiLevel), func() (any, error) {
		// Double-check inside singleflight
		s.mu.RLock()
		ref, ok := s.refs[apiLevel]
		s.mu.RUnlock()
		if ok {
			return ref, nil
		}

		// The load is shared by every waiter and outlives a cancelled caller
		ref, err := s.load(context.WithoutCancel(ctx), dataset)
		metrics.RecordBaselineLoad(dataset, s.src.Name(), err)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.refs[apiLevel] = ref
		s.mu.Unlock()
		return ref, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Reference), nil
}

func (s *Store) load(ctx context.Context, dataset string) (*Reference, error) {
	data, err := s.src.Load(ctx, dataset)
	if err != nil {
		s.logger.Error().Err(err).Str("dataset", dataset).Msg("failed to load baseline")
		return nil, err
	}
	ref, err := Parse(dataset, data)
	if err != nil {
		s.logger.Error().Err(err).Str("dataset", dataset).Msg("invalid baseline")
		return nil, err
	}
	s.logger.Debug().
		Str("dataset", dataset).
		Str("source", s.src.Name()).
		Int("packages", ref.PackagesAll().Len()).
		Int("platform_apps", ref.PlatformAppsAll().Len()).
		Msg("baseline loaded")
	return ref, nil
}
