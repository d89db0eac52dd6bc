package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"slate/internal/logging"
	"slate/internal/platform"
	"slate/internal/sequence"
)

// PropVersionID is the site version id created by the upload plugin.
const PropVersionID = "version_id"

// UploadPlugin creates a review version on the tracking site and uploads the
// rendered media to it.
type UploadPlugin struct {
	service  platform.Service
	settings Settings
	logger   *slog.Logger
}

// NewUploadPlugin builds the upload plugin. logger may be nil.
func NewUploadPlugin(service platform.Service, logger *slog.Logger) *UploadPlugin {
	return &UploadPlugin{
		service: service,
		settings: Settings{
			"Upload Sequences": {
				Type:        "bool",
				Default:     false,
				Description: "Upload full image sequences instead of a single representative frame.",
			},
		},
		logger: logging.NewComponentLogger(logger, "publish.upload"),
	}
}

func (p *UploadPlugin) Name() string { return "upload_version" }

func (p *UploadPlugin) Description() string {
	return "Creates a review version on the tracking site and uploads the media."
}

func (p *UploadPlugin) ItemFilters() []string { return []string{"session.rendering.*"} }

func (p *UploadPlugin) Settings() Settings { return p.settings }

// Accept wants movies by default; sequences are opt-in since uploading every
// frame is expensive.
func (p *UploadPlugin) Accept(ctx context.Context, item *Item) Acceptance {
	if !p.service.Configured() {
		return Rejected
	}
	if item.BoolProperty(PropNeedsOutputPath) {
		return Rejected
	}
	if IsSequence(item) && !p.settings.Bool("Upload Sequences") {
		return PartiallyAccepted
	}
	return FullyAccepted
}

func (p *UploadPlugin) Validate(ctx context.Context, item *Item) []Issue {
	if _, ok := ContextOf(item); !ok {
		return []Issue{{
			Severity: SeverityError,
			Message:  "no tracking context for this project, resolve a context before publishing",
		}}
	}
	return nil
}

// Publish creates the version and uploads the media file, one frame for
// sequences, the whole file for movies.
func (p *UploadPlugin) Publish(ctx context.Context, item *Item) error {
	resolved, ok := ContextOf(item)
	if !ok {
		return fmt.Errorf("item %s has no tracking context", item.Name)
	}
	queueItem, ok := QueueItemOf(item)
	if !ok {
		return fmt.Errorf("item %s has no queue entry", item.Name)
	}
	if len(queueItem.RenderPaths) == 0 {
		return fmt.Errorf("item %s has no render output", item.Name)
	}

	start, count, stride := queueItem.FrameRange()
	req := platform.CreateVersionRequest{
		Context:     resolved,
		Code:        versionCode(item),
		Description: fmt.Sprintf("Rendered from %s", filepath.Base(documentPathOf(item))),
	}
	output := queueItem.RenderPaths[0]
	media := output
	if sequence.HasToken(output) {
		req.FirstFrame = start
		req.LastFrame = start + (count-1)*stride
		// A representative frame from the middle of the range.
		media = sequence.FramePath(output, start+(count/2)*stride)
	} else {
		req.PathToMovie = output
	}

	version, err := p.service.CreateVersion(ctx, req)
	if err != nil {
		return fmt.Errorf("create version: %w", err)
	}
	item.SetProperty(PropVersionID, version.ID)

	if err := p.service.UploadMedia(ctx, version.ID, media); err != nil {
		return fmt.Errorf("upload media for version %d: %w", version.ID, err)
	}
	if item.ThumbnailPath != "" {
		if err := p.service.UploadThumbnail(ctx, "Version", version.ID, item.ThumbnailPath); err != nil {
			p.logger.Warn("cannot upload version thumbnail",
				logging.Int("version_id", version.ID),
				logging.Error(err))
		}
	}

	p.logger.Info("created review version",
		logging.String(logging.FieldItem, item.Name),
		logging.Int("version_id", version.ID),
		logging.String("code", version.Code))
	return nil
}

func (p *UploadPlugin) Finalize(ctx context.Context, item *Item) error { return nil }

// versionCode names the review version after the item and the work file
// version.
func versionCode(item *Item) string {
	version, _ := item.Property(PropPublishVersion)
	if number, ok := version.(int); ok && number > 0 {
		return fmt.Sprintf("%s_v%03d", sanitizeName(item.Name), number)
	}
	return sanitizeName(item.Name)
}
