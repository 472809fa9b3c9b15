package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/scribo/internal/models"
)

// ListOptions narrows article listing.
type ListOptions struct {
	Category string
	Limit    int
	Offset   int
}

// ArticleStorage persists generated articles.
type ArticleStorage interface {
	// CreateArticle durably writes a new article and returns its ID.
	CreateArticle(ctx context.Context, article *models.Article) (string, error)

	// GetArticle returns an article by ID. Returns an error wrapping
	// models.ErrArticleNotFound when missing.
	GetArticle(ctx context.Context, id string) (*models.Article, error)

	// ListArticles returns articles newest first.
	ListArticles(ctx context.Context, opts *ListOptions) ([]*models.Article, error)

	// DeleteArticle removes an article. Callers are responsible for the
	// matching stats decrement.
	DeleteArticle(ctx context.Context, id string) error

	// CountArticles reports the number of stored articles.
	CountArticles(ctx context.Context) (int, error)
}

// ConsumedSetStorage tracks which fragment keys have been used in the
// current cycle.
type ConsumedSetStorage interface {
	// AddConsumedKey atomically marks a fragment consumed. Returns an error
	// wrapping models.ErrAlreadyConsumed if another run marked it first.
	AddConsumedKey(ctx context.Context, key int64, articleID string) error

	// ListConsumedKeys returns all keys consumed in the current cycle.
	ListConsumedKeys(ctx context.Context) ([]int64, error)

	// ClearConsumedKeys removes every consumed record, starting a new cycle,
	// and reports how many records it removed. Count and delete run in one
	// transaction, so of several concurrent callers exactly one observes a
	// non-zero count. Idempotent: clearing an empty set returns 0, nil.
	ClearConsumedKeys(ctx context.Context) (int, error)

	// CountConsumedKeys reports the size of the consumed set.
	CountConsumedKeys(ctx context.Context) (int, error)
}

// StatsStorage maintains the generation counters. Increments are atomic with
// respect to concurrent pipeline runs; whole-row replacement is not exposed.
type StatsStorage interface {
	GetStats(ctx context.Context) (*models.GenerationStats, error)
	IncrementGenerated(ctx context.Context, at time.Time) error
	DecrementGenerated(ctx context.Context) error
	IncrementCycle(ctx context.Context) error
}

// StorageManager bundles the durable storage interfaces behind one
// connection lifecycle.
type StorageManager interface {
	Articles() ArticleStorage
	Consumed() ConsumedSetStorage
	Stats() StatsStorage
	Fragments() FragmentStore
	Close() error
}
