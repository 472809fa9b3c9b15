package badger

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db        *BadgerDB
	articles  interfaces.ArticleStorage
	consumed  interfaces.ConsumedSetStorage
	stats     interfaces.StatsStorage
	fragments *FragmentStorage
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		articles:  NewArticleStorage(db, logger),
		consumed:  NewConsumedStorage(db, logger),
		stats:     NewStatsStorage(db, logger),
		fragments: NewFragmentStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Articles returns the Article storage interface
func (m *Manager) Articles() interfaces.ArticleStorage {
	return m.articles
}

// Consumed returns the ConsumedSet storage interface
func (m *Manager) Consumed() interfaces.ConsumedSetStorage {
	return m.consumed
}

// Stats returns the Stats storage interface
func (m *Manager) Stats() interfaces.StatsStorage {
	return m.stats
}

// Fragments returns the Fragment store interface
func (m *Manager) Fragments() interfaces.FragmentStore {
	return m.fragments
}

// LoadFragmentSeeds loads fragment seed files from the given directory
func (m *Manager) LoadFragmentSeeds(ctx context.Context, dirPath string) (int, error) {
	return LoadFragmentsFromDir(ctx, m.fragments, dirPath, m.logger)
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
