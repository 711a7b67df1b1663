package dataset

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"districtrisk/domain/core"
	"districtrisk/internal"
	"districtrisk/ports"
)

// Store holds the current Index and swaps it atomically on reload, so
// in-flight readers keep the Index they started with.
type Store struct {
	current atomic.Pointer[Index]
	source  ports.ObservationSource

	reloadMu sync.Mutex // serializes reloads, never held by readers
}

// NewStore wraps an already loaded Index. source may be nil, in which case
// Reload is unavailable.
func NewStore(idx *Index, source ports.ObservationSource) *Store {
	s := &Store{source: source}
	s.current.Store(idx)
	return s
}

// Open loads the source and returns a Store over it.
func Open(ctx context.Context, source ports.ObservationSource) (*Store, *LoadReport, error) {
	idx, report, err := Load(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	return NewStore(idx, source), report, nil
}

// Current returns the live Index.
func (s *Store) Current() *Index {
	return s.current.Load()
}

// Reload reads the source again and swaps the Index in one step.
// On failure the previous Index stays live.
func (s *Store) Reload(ctx context.Context) (*LoadReport, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: store has no reloadable source", core.ErrDataLoad)
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	idx, report, err := Load(ctx, s.source)
	if err != nil {
		internal.DefaultLogger.Error("[DatasetStore] reload failed, keeping previous dataset: %v", err)
		return nil, err
	}
	s.current.Store(idx)
	internal.DefaultLogger.Info("[DatasetStore] dataset swapped (%d rows)", idx.Len())
	return report, nil
}
