package badger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

const statsKey = "generation_stats"

// StatsStorage implements the StatsStorage interface for Badger. Badger has
// no server-side atomic increment for badgerhold-encoded records, so every
// read-modify-write runs under a process-wide mutex. Concurrent pipeline
// runs share one StatsStorage instance through the storage manager.
type StatsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewStatsStorage creates a new StatsStorage instance
func NewStatsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.StatsStorage {
	return &StatsStorage{
		db:     db,
		logger: logger,
	}
}

func (s *StatsStorage) GetStats(ctx context.Context) (*models.GenerationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *StatsStorage) IncrementGenerated(ctx context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.load()
	if err != nil {
		return err
	}

	stats.TotalGenerated++
	stats.LastGeneratedAt = &at
	return s.save(stats)
}

func (s *StatsStorage) DecrementGenerated(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.load()
	if err != nil {
		return err
	}

	if stats.TotalGenerated > 0 {
		stats.TotalGenerated--
	}
	return s.save(stats)
}

func (s *StatsStorage) IncrementCycle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.load()
	if err != nil {
		return err
	}

	stats.CycleCount++
	return s.save(stats)
}

// load reads the stats row, returning zero-valued stats when none exists
// yet. Callers must hold the mutex.
func (s *StatsStorage) load() (*models.GenerationStats, error) {
	var stats models.GenerationStats
	if err := s.db.Store().Get(statsKey, &stats); err != nil {
		if err == badgerhold.ErrNotFound {
			return &models.GenerationStats{}, nil
		}
		return nil, fmt.Errorf("failed to load generation stats: %w", err)
	}
	return &stats, nil
}

// save writes the stats row. Callers must hold the mutex.
func (s *StatsStorage) save(stats *models.GenerationStats) error {
	stats.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(statsKey, stats); err != nil {
		return fmt.Errorf("failed to save generation stats: %w", err)
	}
	return nil
}
