package selector

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// Service picks one unconsumed fragment from the pool, cycling when the
// pool is exhausted. Selection alone has no side effects beyond the cycle
// reset; marking a fragment consumed happens at publish time.
type Service struct {
	fragments   interfaces.FragmentStore
	consumed    interfaces.ConsumedSetStorage
	stats       interfaces.StatsStorage
	logger      arbor.ILogger
	minChars    int
	maxAttempts int

	// pick is swapped out in tests for deterministic selection
	pick func(n int) int
}

// NewService creates a new cycle selector
func NewService(fragments interfaces.FragmentStore, consumed interfaces.ConsumedSetStorage, stats interfaces.StatsStorage, minChars, maxAttempts int, logger arbor.ILogger) *Service {
	if minChars <= 0 {
		minChars = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Service{
		fragments:   fragments,
		consumed:    consumed,
		stats:       stats,
		logger:      logger,
		minChars:    minChars,
		maxAttempts: maxAttempts,
		pick:        rand.IntN,
	}
}

// Select returns one unconsumed fragment chosen uniformly at random,
// reporting whether a cycle reset happened on this call.
//
// An empty pool fails with models.ErrNoContentAvailable before any reset is
// attempted. When every key is consumed, the consumed set is cleared, the
// cycle counter incremented, and selection restarts over the full pool; the
// clear is idempotent and counted, so a crash between clear and pick is safe
// and concurrent runs racing on the same exhaustion advance the cycle counter
// exactly once. Fragments
// below the minimum content threshold are skipped with a bounded retry;
// exhausting the retries fails with models.ErrLowQualityPool.
func (s *Service) Select(ctx context.Context) (*models.Fragment, bool, error) {
	cycleReset := false

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		allKeys, err := s.fragments.ListKeys(ctx)
		if err != nil {
			return nil, cycleReset, fmt.Errorf("failed to list fragment keys: %w", err)
		}

		if len(allKeys) == 0 {
			return nil, false, models.ErrNoContentAvailable
		}

		consumedKeys, err := s.consumed.ListConsumedKeys(ctx)
		if err != nil {
			return nil, cycleReset, fmt.Errorf("%w: failed to list consumed keys: %v", models.ErrStoreUnavailable, err)
		}

		available := subtract(allKeys, consumedKeys)

		if len(available) == 0 {
			if err := s.resetCycle(ctx); err != nil {
				return nil, cycleReset, err
			}
			cycleReset = true
			available = allKeys
		}

		key := available[s.pick(len(available))]

		fragment, err := s.fragments.GetByKey(ctx, key)
		if err != nil {
			if errors.Is(err, models.ErrFragmentNotFound) {
				// Stale consumed-set entries referencing deleted fragments
				// are tolerated; treat like a low-quality pick and retry.
				s.logger.Warn().
					Int64("key", key).
					Msg("Selected fragment no longer exists, retrying")
				continue
			}
			return nil, cycleReset, fmt.Errorf("failed to fetch fragment %d: %w", key, err)
		}

		if len(strings.TrimSpace(fragment.Text)) < s.minChars {
			s.logger.Debug().
				Int64("key", key).
				Int("length", len(fragment.Text)).
				Int("min_chars", s.minChars).
				Msg("Fragment below quality threshold, retrying")
			continue
		}

		s.logger.Debug().
			Int64("key", key).
			Int("pool_size", len(allKeys)).
			Int("available", len(available)).
			Bool("cycle_reset", cycleReset).
			Msg("Fragment selected")

		return fragment, cycleReset, nil
	}

	return nil, cycleReset, fmt.Errorf("%w after %d attempts", models.ErrLowQualityPool, s.maxAttempts)
}

// ResetCycle clears the consumed set manually, bypassing the
// auto-reset-on-exhaustion path.
func (s *Service) ResetCycle(ctx context.Context) error {
	return s.resetCycle(ctx)
}

func (s *Service) resetCycle(ctx context.Context) error {
	removed, err := s.consumed.ClearConsumedKeys(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to clear consumed set: %v", models.ErrStoreUnavailable, err)
	}
	if removed == 0 {
		// A concurrent run cleared the set first; it owns the cycle
		// increment for this exhaustion.
		s.logger.Debug().Msg("Consumed set already cleared, skipping cycle increment")
		return nil
	}
	if err := s.stats.IncrementCycle(ctx); err != nil {
		return fmt.Errorf("%w: failed to increment cycle count: %v", models.ErrStoreUnavailable, err)
	}

	s.logger.Info().Int("cleared", removed).Msg("Fragment cycle reset, starting new cycle")
	return nil
}

// subtract returns the keys in all that are not in consumed
func subtract(all, consumed []int64) []int64 {
	if len(consumed) == 0 {
		return all
	}

	seen := make(map[int64]struct{}, len(consumed))
	for _, k := range consumed {
		seen[k] = struct{}{}
	}

	available := make([]int64, 0, len(all))
	for _, k := range all {
		if _, ok := seen[k]; !ok {
			available = append(available, k)
		}
	}
	return available
}
