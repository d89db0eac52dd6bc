package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"slate/internal/config"
	"slate/internal/logging"
	"slate/internal/platform"
)

// ContextCache is the persistence slice the session manager uses.
// *contextstore.Store satisfies this.
type ContextCache interface {
	GetContext(ctx context.Context, documentPath string) (*platform.Context, error)
	SaveContext(ctx context.Context, documentPath string, resolved platform.Context) error
}

// SessionManager resolves document paths to tracking contexts, cache first,
// then the site, and fetches entity thumbnails for the panel.
type SessionManager struct {
	cfg      config.Session
	service  platform.Service
	cache    ContextCache
	thumbDir string
	client   *http.Client
	logger   *slog.Logger
}

// NewSessionManager builds a SessionManager. cache may be nil to disable
// persistence, logger may be nil.
func NewSessionManager(cfg config.Session, service platform.Service, cache ContextCache, thumbDir string, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		cfg:      cfg,
		service:  service,
		cache:    cache,
		thumbDir: thumbDir,
		client:   &http.Client{},
		logger:   logging.NewComponentLogger(logger, "session"),
	}
}

// ContextFor resolves the context of a document path. A nil context with nil
// error means neither the cache nor the site knows the path.
func (m *SessionManager) ContextFor(ctx context.Context, documentPath string) (*platform.Context, error) {
	if documentPath == "" {
		return nil, nil
	}
	if m.cfg.ContextCache && m.cache != nil {
		cached, err := m.cache.GetContext(ctx, documentPath)
		if err != nil {
			m.logger.Warn("context cache read failed",
				logging.String(logging.FieldDocument, documentPath),
				logging.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}
	if !m.service.Configured() {
		return nil, nil
	}

	resolved, err := m.service.ResolveContext(ctx, documentPath)
	if err != nil {
		return nil, fmt.Errorf("resolve context: %w", err)
	}
	if resolved == nil {
		return nil, nil
	}
	if m.cfg.ContextCache && m.cache != nil {
		if err := m.cache.SaveContext(ctx, documentPath, *resolved); err != nil {
			m.logger.Warn("context cache write failed",
				logging.String(logging.FieldDocument, documentPath),
				logging.Error(err))
		}
	}
	return resolved, nil
}

// Forget drops the cached context for a document path, forcing the next
// lookup to ask the site again.
func (m *SessionManager) Forget(ctx context.Context, documentPath string) error {
	if m.cache == nil {
		return nil
	}
	type deleter interface {
		DeleteContext(ctx context.Context, documentPath string) error
	}
	d, ok := m.cache.(deleter)
	if !ok {
		return nil
	}
	return d.DeleteContext(ctx, documentPath)
}

// Thumbnail downloads the entity thumbnail of a resolved context and returns
// the local file path. An empty path with nil error means the entity has no
// thumbnail.
func (m *SessionManager) Thumbnail(ctx context.Context, resolved platform.Context) (string, error) {
	if resolved.ThumbnailURL == "" || m.thumbDir == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved.ThumbnailURL, nil)
	if err != nil {
		return "", fmt.Errorf("thumbnail request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch thumbnail: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(m.thumbDir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail dir: %w", err)
	}
	path := filepath.Join(m.thumbDir, fmt.Sprintf("%s_%d.jpg", resolved.EntityType, resolved.EntityID))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	return path, nil
}
