package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// FragmentStorage implements the FragmentStore interface for Badger. The
// pipeline only reads fragments; SaveFragment exists for the seed loader
// and ingest tooling.
type FragmentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewFragmentStorage creates a new FragmentStorage instance
func NewFragmentStorage(db *BadgerDB, logger arbor.ILogger) *FragmentStorage {
	return &FragmentStorage{
		db:     db,
		logger: logger,
	}
}

func (s *FragmentStorage) ListKeys(ctx context.Context) ([]int64, error) {
	var fragments []models.Fragment
	if err := s.db.Store().Find(&fragments, nil); err != nil {
		return nil, fmt.Errorf("%w: failed to list fragment keys: %v", models.ErrStoreUnavailable, err)
	}

	keys := make([]int64, len(fragments))
	for i, f := range fragments {
		keys[i] = f.Key
	}
	return keys, nil
}

func (s *FragmentStorage) GetByKey(ctx context.Context, key int64) (*models.Fragment, error) {
	var fragment models.Fragment
	if err := s.db.Store().Get(key, &fragment); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: key %d", models.ErrFragmentNotFound, key)
		}
		return nil, fmt.Errorf("%w: failed to get fragment %d: %v", models.ErrStoreUnavailable, key, err)
	}
	return &fragment, nil
}

func (s *FragmentStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Fragment{}, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count fragments: %v", models.ErrStoreUnavailable, err)
	}
	return int(count), nil
}

// SaveFragment upserts a fragment into the pool. Used by the seed loader,
// not by the generation pipeline.
func (s *FragmentStorage) SaveFragment(ctx context.Context, fragment *models.Fragment) error {
	if fragment.Text == "" {
		return fmt.Errorf("fragment text is required")
	}

	now := time.Now()
	if fragment.CreatedAt.IsZero() {
		fragment.CreatedAt = now
	}
	fragment.UpdatedAt = now

	if err := s.db.Store().Upsert(fragment.Key, fragment); err != nil {
		return fmt.Errorf("failed to save fragment %d: %w", fragment.Key, err)
	}
	return nil
}
