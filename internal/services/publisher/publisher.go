package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

// Service persists finished articles and keeps the generation bookkeeping
// in step with them.
type Service struct {
	articles interfaces.ArticleStorage
	consumed interfaces.ConsumedSetStorage
	stats    interfaces.StatsStorage
	logger   arbor.ILogger
}

// NewService creates a new publisher service
func NewService(articles interfaces.ArticleStorage, consumed interfaces.ConsumedSetStorage, stats interfaces.StatsStorage, logger arbor.ILogger) *Service {
	return &Service{
		articles: articles,
		consumed: consumed,
		stats:    stats,
		logger:   logger,
	}
}

// Publish durably stores the article and increments the generation count.
// A storage failure wraps models.ErrPublishFailed and leaves the consumed
// set untouched, so the source fragment stays eligible for reselection.
// A stats failure after a durable write is logged, not returned: the
// article exists and the run must count as a success.
func (s *Service) Publish(ctx context.Context, article *models.Article) (string, error) {
	if article.ID == "" {
		return "", fmt.Errorf("%w: article has no ID", models.ErrPublishFailed)
	}

	id, err := s.articles.CreateArticle(ctx, article)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrPublishFailed, err)
	}

	if err := s.stats.IncrementGenerated(ctx, time.Now().UTC()); err != nil {
		s.logger.Warn().
			Err(err).
			Str("article_id", article.ID).
			Msg("Article stored but stats update failed")
	}

	s.logger.Info().
		Str("article_id", id).
		Str("title", article.Title).
		Str("category", string(article.Category)).
		Msg("Article published")

	return id, nil
}

// MarkConsumed records the source fragment as used in the current cycle.
// Called only after a durable publish. A duplicate key means a concurrent
// run already claimed the fragment; the caller surfaces that as a warning
// rather than a failure, since the article is already stored.
func (s *Service) MarkConsumed(ctx context.Context, key int64, articleID string) error {
	if err := s.consumed.AddConsumedKey(ctx, key, articleID); err != nil {
		if errors.Is(err, models.ErrAlreadyConsumed) {
			return err
		}
		return fmt.Errorf("%w: failed to mark fragment %d consumed: %v", models.ErrStoreUnavailable, key, err)
	}
	return nil
}
