package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Generation
	mux.HandleFunc("/api/generate", s.app.GenerateHandler.GenerateHandler)            // POST - run the pipeline once
	mux.HandleFunc("/api/generate/batch", s.app.GenerateHandler.GenerateBatchHandler) // POST - run a sequential batch
	mux.HandleFunc("/api/cycle/reset", s.app.GenerateHandler.ResetCycleHandler)       // POST - clear the consumed set

	// API routes - Articles
	mux.HandleFunc("/api/articles", s.app.ArticleHandler.ListHandler) // GET - list with category/limit/offset
	mux.HandleFunc("/api/articles/", s.handleArticleRoutes)           // GET/DELETE /{id}, GET /{id}/preview

	// API routes - Status
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler) // GET - pipeline status snapshot

	// Persisted images
	mux.Handle(s.app.Config.Images.PublicPath+"/", http.StripPrefix(
		s.app.Config.Images.PublicPath+"/",
		http.FileServer(http.Dir(s.app.ImagesDir)),
	))

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleArticleRoutes routes article subpaths to the appropriate handler
func (s *Server) handleArticleRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/articles/")
	if path == "" {
		http.Error(w, "Article ID required", http.StatusBadRequest)
		return
	}

	// GET /api/articles/{id}/preview
	if id, ok := strings.CutSuffix(path, "/preview"); ok {
		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.ArticleHandler.PreviewHandler(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case "GET":
		s.app.ArticleHandler.GetHandler(w, r, path)
	case "DELETE":
		s.app.ArticleHandler.DeleteHandler(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
