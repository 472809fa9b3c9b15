package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ArticleHandler handles HTTP requests for stored articles
type ArticleHandler struct {
	articles interfaces.ArticleStorage
	stats    interfaces.StatsStorage
	logger   arbor.ILogger
	markdown goldmark.Markdown
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(articles interfaces.ArticleStorage, stats interfaces.StatsStorage, logger arbor.ILogger) *ArticleHandler {
	return &ArticleHandler{
		articles: articles,
		stats:    stats,
		logger:   logger,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// ListHandler handles GET /api/articles
func (h *ArticleHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	opts := &interfaces.ListOptions{
		Category: r.URL.Query().Get("category"),
		Limit:    GetIntParam(r, "limit", 50),
		Offset:   GetIntParam(r, "offset", 0),
	}

	if opts.Category != "" {
		if _, valid := models.NormalizeCategory(opts.Category); !valid {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown category: %s", opts.Category))
			return
		}
	}

	articles, err := h.articles.ListArticles(r.Context(), opts)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to list articles")
		WriteError(w, http.StatusInternalServerError, "Failed to list articles")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"articles": articles,
		"count":    len(articles),
	})
}

// GetHandler handles GET /api/articles/{id}
func (h *ArticleHandler) GetHandler(w http.ResponseWriter, r *http.Request, id string) {
	article, err := h.articles.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrArticleNotFound) {
			WriteError(w, http.StatusNotFound, "Article not found")
			return
		}
		h.logger.Warn().Err(err).Str("article_id", id).Msg("Failed to load article")
		WriteError(w, http.StatusInternalServerError, "Failed to load article")
		return
	}

	WriteJSON(w, http.StatusOK, article)
}

// DeleteHandler handles DELETE /api/articles/{id}. Deleting an article also
// decrements the generated counter so the stats track stored articles.
func (h *ArticleHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.articles.DeleteArticle(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrArticleNotFound) {
			WriteError(w, http.StatusNotFound, "Article not found")
			return
		}
		h.logger.Warn().Err(err).Str("article_id", id).Msg("Failed to delete article")
		WriteError(w, http.StatusInternalServerError, "Failed to delete article")
		return
	}

	if err := h.stats.DecrementGenerated(r.Context()); err != nil {
		h.logger.Warn().Err(err).Str("article_id", id).Msg("Article deleted but stats update failed")
	}

	WriteSuccess(w, "Article deleted")
}

// PreviewHandler handles GET /api/articles/{id}/preview, rendering the
// article content from markdown to a standalone HTML page.
func (h *ArticleHandler) PreviewHandler(w http.ResponseWriter, r *http.Request, id string) {
	article, err := h.articles.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrArticleNotFound) {
			WriteError(w, http.StatusNotFound, "Article not found")
			return
		}
		h.logger.Warn().Err(err).Str("article_id", id).Msg("Failed to load article for preview")
		WriteError(w, http.StatusInternalServerError, "Failed to load article")
		return
	}

	var body bytes.Buffer
	if err := h.markdown.Convert([]byte(article.Content), &body); err != nil {
		h.logger.Warn().Err(err).Str("article_id", id).Msg("Markdown rendering failed")
		WriteError(w, http.StatusInternalServerError, "Failed to render article")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	title := html.EscapeString(article.Title)
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n", title)
	fmt.Fprintf(w, "<h1>%s</h1>\n", title)
	if article.ImageURL != "" {
		fmt.Fprintf(w, "<img src=%q alt=%q>\n", article.ImageURL, title)
	}
	w.Write(body.Bytes())
	fmt.Fprint(w, "\n</body>\n</html>\n")
}
