package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/ternarybob/scribo/internal/storage/badger"
)

func newTestArticleHandler(t *testing.T) (*ArticleHandler, *badger.Manager) {
	t.Helper()

	manager, err := badger.NewManager(arbor.NewLogger(), &common.BadgerConfig{
		Path: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return NewArticleHandler(manager.Articles(), manager.Stats(), arbor.NewLogger()), manager
}

func storeArticle(t *testing.T, manager *badger.Manager, id string) {
	t.Helper()

	now := time.Now().UTC()
	_, err := manager.Articles().CreateArticle(context.Background(), &models.Article{
		ID:        id,
		Title:     "Vaccine Trial Results",
		Content:   "## Findings\n\nThe trial met its primary endpoint.",
		Summary:   "Trial succeeded.",
		Category:  models.CategoryResearch,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
}

func TestListHandlerReturnsArticles(t *testing.T) {
	handler, manager := newTestArticleHandler(t)
	storeArticle(t, manager, "art_1")

	req := httptest.NewRequest("GET", "/api/articles", nil)
	rec := httptest.NewRecorder()
	handler.ListHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "art_1")
}

func TestListHandlerRejectsUnknownCategory(t *testing.T) {
	handler, _ := newTestArticleHandler(t)

	req := httptest.NewRequest("GET", "/api/articles?category=astrology", nil)
	rec := httptest.NewRecorder()
	handler.ListHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHandlerNotFound(t *testing.T) {
	handler, _ := newTestArticleHandler(t)

	req := httptest.NewRequest("GET", "/api/articles/art_missing", nil)
	rec := httptest.NewRecorder()
	handler.GetHandler(rec, req, "art_missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteHandlerDecrementsStats(t *testing.T) {
	handler, manager := newTestArticleHandler(t)
	ctx := context.Background()

	storeArticle(t, manager, "art_del")
	require.NoError(t, manager.Stats().IncrementGenerated(ctx, time.Now().UTC()))

	req := httptest.NewRequest("DELETE", "/api/articles/art_del", nil)
	rec := httptest.NewRecorder()
	handler.DeleteHandler(rec, req, "art_del")

	assert.Equal(t, http.StatusOK, rec.Code)

	stats, err := manager.Stats().GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalGenerated)

	_, err = manager.Articles().GetArticle(ctx, "art_del")
	assert.ErrorIs(t, err, models.ErrArticleNotFound)
}

func TestPreviewHandlerRendersMarkdown(t *testing.T) {
	handler, manager := newTestArticleHandler(t)
	storeArticle(t, manager, "art_md")

	req := httptest.NewRequest("GET", "/api/articles/art_md/preview", nil)
	rec := httptest.NewRecorder()
	handler.PreviewHandler(rec, req, "art_md")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "<h2")
	assert.Contains(t, rec.Body.String(), "Vaccine Trial Results")
}
