// Package platform talks to the production-tracking site: it resolves the
// entity context behind a work file, creates review versions, uploads media
// and thumbnails, and registers publishes.
package platform

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by the noop service when no site is set up.
var ErrNotConfigured = errors.New("platform: no site configured")

// Context is the entity context a work file belongs to.
type Context struct {
	EntityType string `json:"entity_type"`
	EntityID   int    `json:"entity_id"`
	Project    string `json:"project"`
	TaskName   string `json:"task_name"`
	// Display is the human-readable label shown in the panel header.
	Display string `json:"display"`
	// ThumbnailURL points at the entity thumbnail, empty when the site has
	// none.
	ThumbnailURL string `json:"thumbnail_url"`
	// WebURL opens the entity's page in a browser.
	WebURL string `json:"web_url"`
}

// Version is a review version created on the site.
type Version struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
}

// PublishRecord is a registered publish entry.
type PublishRecord struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// CreateVersionRequest describes a new review version.
type CreateVersionRequest struct {
	Context     Context `json:"context"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	FirstFrame  int     `json:"first_frame,omitempty"`
	LastFrame   int     `json:"last_frame,omitempty"`
	PathToMovie string  `json:"path_to_movie,omitempty"`
}

// RegisterPublishRequest describes a publish registration.
type RegisterPublishRequest struct {
	Context     Context `json:"context"`
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Version     int     `json:"version"`
	PublishType string  `json:"publish_type"`
	Description string  `json:"description"`
}

// Service is the site API the publish pipeline depends on.
type Service interface {
	// Configured reports whether calls can succeed at all.
	Configured() bool
	// ResolveContext maps a document path to its entity context. A nil
	// context with nil error means the site does not know the path.
	ResolveContext(ctx context.Context, documentPath string) (*Context, error)
	CreateVersion(ctx context.Context, req CreateVersionRequest) (*Version, error)
	UploadMedia(ctx context.Context, versionID int, filePath string) error
	UploadThumbnail(ctx context.Context, entityType string, entityID int, filePath string) error
	RegisterPublish(ctx context.Context, req RegisterPublishRequest) (*PublishRecord, error)
}

type noopService struct{}

// NewNoop returns a Service for installs without a tracking site. Configured
// reports false and every call fails with ErrNotConfigured.
func NewNoop() Service { return noopService{} }

func (noopService) Configured() bool { return false }

func (noopService) ResolveContext(context.Context, string) (*Context, error) {
	return nil, ErrNotConfigured
}

func (noopService) CreateVersion(context.Context, CreateVersionRequest) (*Version, error) {
	return nil, ErrNotConfigured
}

func (noopService) UploadMedia(context.Context, int, string) error { return ErrNotConfigured }

func (noopService) UploadThumbnail(context.Context, string, int, string) error {
	return ErrNotConfigured
}

func (noopService) RegisterPublish(context.Context, RegisterPublishRequest) (*PublishRecord, error) {
	return nil, ErrNotConfigured
}
