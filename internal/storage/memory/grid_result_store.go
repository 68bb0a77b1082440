package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage"
)

// GridResultStore is an in-memory implementation of storage.GridResultStore.
type GridResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.GridResult // keyed by (run_id, short, long)
}

// NewGridResultStore creates a new in-memory grid result store.
func NewGridResultStore() *GridResultStore {
	return &GridResultStore{
		data: make(map[string]*domain.GridResult),
	}
}

func gridKey(runID string, short, long int) string {
	return fmt.Sprintf("%s|%d|%d", runID, short, long)
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *GridResultStore) InsertBulk(_ context.Context, results []*domain.GridResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := gridKey(r.RunID, r.ShortWindow, r.LongWindow)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range results {
		resCopy := *r
		s.data[gridKey(r.RunID, r.ShortWindow, r.LongWindow)] = &resCopy
	}

	return nil
}

// GetByRunID retrieves all results of a grid run, ordered by rank ASC.
func (s *GridResultStore) GetByRunID(_ context.Context, runID string) ([]*domain.GridResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.GridResult
	for _, r := range s.data {
		if r.RunID == runID {
			resCopy := *r
			result = append(result, &resCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Rank < result[j].Rank
	})

	return result, nil
}

var _ storage.GridResultStore = (*GridResultStore)(nil)
