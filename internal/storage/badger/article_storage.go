package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ArticleStorage implements the ArticleStorage interface for Badger
type ArticleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewArticleStorage creates a new ArticleStorage instance
func NewArticleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArticleStorage {
	return &ArticleStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ArticleStorage) CreateArticle(ctx context.Context, article *models.Article) (string, error) {
	if article.ID == "" {
		return "", fmt.Errorf("article ID is required")
	}

	now := time.Now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now

	if err := s.db.Store().Insert(article.ID, article); err != nil {
		if err == badgerhold.ErrKeyExists {
			return "", fmt.Errorf("article %s already exists", article.ID)
		}
		return "", fmt.Errorf("failed to create article: %w", err)
	}
	return article.ID, nil
}

func (s *ArticleStorage) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	if err := s.db.Store().Get(id, &article); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", models.ErrArticleNotFound, id)
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

func (s *ArticleStorage) ListArticles(ctx context.Context, opts *interfaces.ListOptions) ([]*models.Article, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()

	if opts != nil {
		if opts.Category != "" {
			query = query.And("Category").Eq(models.Category(opts.Category))
		}
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
	}

	var articles []models.Article
	if err := s.db.Store().Find(&articles, query); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	result := make([]*models.Article, len(articles))
	for i := range articles {
		result[i] = &articles[i]
	}
	return result, nil
}

func (s *ArticleStorage) DeleteArticle(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Article{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w: %s", models.ErrArticleNotFound, id)
		}
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

func (s *ArticleStorage) CountArticles(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Article{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return int(count), nil
}
