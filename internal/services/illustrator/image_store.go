package illustrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
)

// LocalImageStore downloads transient image URLs and persists them under a
// local directory, returning the public path they are served from.
type LocalImageStore struct {
	baseDir      string
	publicPath   string
	maxImageSize int64
	logger       arbor.ILogger
	client       *http.Client
}

// NewLocalImageStore creates a new local image store
func NewLocalImageStore(config *common.ImagesConfig, imagesDir string, logger arbor.ILogger) (interfaces.ImageStore, error) {
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	maxSize := config.MaxImageSize
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024 // 10MB
	}

	publicPath := strings.TrimSuffix(config.PublicPath, "/")
	if publicPath == "" {
		publicPath = "/data/images"
	}

	return &LocalImageStore{
		baseDir:      imagesDir,
		publicPath:   publicPath,
		maxImageSize: maxSize,
		logger:       logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// FetchAndStore downloads the image at sourceURL and writes it under the
// images directory. The filename combines idHint with a content hash so
// repeated fetches of the same image deduplicate naturally.
func (s *LocalImageStore) FetchAndStore(ctx context.Context, sourceURL, idHint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create image download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download failed: HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", fmt.Errorf("not an image: %s", contentType)
	}

	limitReader := io.LimitReader(resp.Body, s.maxImageSize+1)
	data, err := io.ReadAll(limitReader)
	if err != nil {
		return "", fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > s.maxImageSize {
		return "", fmt.Errorf("image too large (over %d bytes)", s.maxImageSize)
	}

	hash := sha256.Sum256(data)
	hashHex := hex.EncodeToString(hash[:])

	ext := extensionFromContentType(contentType)
	if ext == "" {
		ext = extensionFromURL(sourceURL)
	}
	if ext == "" {
		ext = ".png"
	}

	filename := fmt.Sprintf("%s_%s%s", sanitizeHint(idHint), hashHex[:12], ext)
	fullPath := filepath.Join(s.baseDir, filename)

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	s.logger.Debug().
		Str("url", sourceURL).
		Str("path", fullPath).
		Int("size", len(data)).
		Msg("Image downloaded and persisted")

	return s.publicPath + "/" + filename, nil
}

// sanitizeHint keeps the filename hint filesystem-safe
func sanitizeHint(hint string) string {
	if hint == "" {
		return "img"
	}
	var b strings.Builder
	for _, r := range hint {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// extensionFromContentType returns the file extension for an image content type
func extensionFromContentType(contentType string) string {
	contentType = strings.ToLower(strings.Split(contentType, ";")[0])

	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// extensionFromURL extracts a known image extension from a URL path
func extensionFromURL(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return ""
	}

	ext := strings.ToLower(filepath.Ext(parsed.Path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ""
	}
}
