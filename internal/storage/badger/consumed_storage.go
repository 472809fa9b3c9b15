package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ConsumedStorage implements the ConsumedSetStorage interface for Badger.
// Records are keyed by the fragment key itself, so Insert doubles as the
// atomic check-and-mark: the second of two concurrent runs marking the same
// fragment gets ErrKeyExists instead of silently double-counting.
type ConsumedStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewConsumedStorage creates a new ConsumedStorage instance
func NewConsumedStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ConsumedSetStorage {
	return &ConsumedStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ConsumedStorage) AddConsumedKey(ctx context.Context, key int64, articleID string) error {
	record := &models.ConsumedKey{
		Key:        key,
		ArticleID:  articleID,
		ConsumedAt: time.Now(),
	}

	if err := s.db.Store().Insert(key, record); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("%w: key %d", models.ErrAlreadyConsumed, key)
		}
		return fmt.Errorf("failed to mark fragment consumed: %w", err)
	}
	return nil
}

func (s *ConsumedStorage) ListConsumedKeys(ctx context.Context) ([]int64, error) {
	var records []models.ConsumedKey
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list consumed keys: %w", err)
	}

	keys := make([]int64, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	return keys, nil
}

// ClearConsumedKeys counts and deletes in one transaction so that of two
// concurrent clears exactly one observes a non-zero count.
func (s *ConsumedStorage) ClearConsumedKeys(ctx context.Context) (int, error) {
	var removed int
	for {
		removed = 0
		err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
			count, err := s.db.Store().TxCount(txn, &models.ConsumedKey{}, nil)
			if err != nil {
				return err
			}
			if count == 0 {
				return nil
			}
			if err := s.db.Store().TxDeleteMatching(txn, &models.ConsumedKey{}, nil); err != nil {
				return err
			}
			removed = int(count)
			return nil
		})
		if err == badgerdb.ErrConflict {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to clear consumed keys: %w", err)
		}
		return removed, nil
	}
}

func (s *ConsumedStorage) CountConsumedKeys(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ConsumedKey{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count consumed keys: %w", err)
	}
	return int(count), nil
}
