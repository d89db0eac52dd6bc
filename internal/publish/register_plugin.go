package publish

import (
	"context"
	"fmt"
	"log/slog"

	"slate/internal/logging"
	"slate/internal/platform"
)

// PropPublishID is the site publish id created by the register plugin.
const PropPublishID = "publish_id"

// RegisterPlugin registers every published path with the tracking site: the
// work file itself plus each copied render output.
type RegisterPlugin struct {
	service  platform.Service
	settings Settings
	logger   *slog.Logger
}

// NewRegisterPlugin builds the register plugin. logger may be nil.
func NewRegisterPlugin(service platform.Service, logger *slog.Logger) *RegisterPlugin {
	return &RegisterPlugin{
		service:  service,
		settings: Settings{},
		logger:   logging.NewComponentLogger(logger, "publish.register"),
	}
}

func (p *RegisterPlugin) Name() string { return "register" }

func (p *RegisterPlugin) Description() string {
	return "Registers published files with the tracking site."
}

func (p *RegisterPlugin) ItemFilters() []string {
	return []string{"session", "session.rendering.*"}
}

func (p *RegisterPlugin) Settings() Settings { return p.settings }

func (p *RegisterPlugin) Accept(ctx context.Context, item *Item) Acceptance {
	if !p.service.Configured() {
		return Rejected
	}
	if item.Type == "session" {
		if item.StringProperty(PropDocumentPath) == "" {
			return Rejected
		}
		return FullyAccepted
	}
	if item.BoolProperty(PropNeedsOutputPath) {
		return Rejected
	}
	return FullyAccepted
}

func (p *RegisterPlugin) Validate(ctx context.Context, item *Item) []Issue {
	if _, ok := ContextOf(item); !ok {
		return []Issue{{
			Severity: SeverityError,
			Message:  "no tracking context for this project, resolve a context before publishing",
		}}
	}
	return nil
}

// Publish registers the item's published path. For rendering items the copy
// plugin must have run first; for the session item the work file path is
// registered directly.
func (p *RegisterPlugin) Publish(ctx context.Context, item *Item) error {
	resolved, ok := ContextOf(item)
	if !ok {
		return fmt.Errorf("item %s has no tracking context", item.Name)
	}

	path := item.StringProperty(PropPublishPath)
	publishType := item.DisplayType
	if item.Type == "session" {
		path = item.StringProperty(PropDocumentPath)
		publishType = "Project File"
	}
	if path == "" {
		return fmt.Errorf("item %s has no published path to register", item.Name)
	}

	version, _ := item.Property(PropPublishVersion)
	number, _ := version.(int)
	record, err := p.service.RegisterPublish(ctx, platform.RegisterPublishRequest{
		Context:     resolved,
		Name:        sanitizeName(item.Name),
		Path:        path,
		Version:     number,
		PublishType: publishType,
		Description: fmt.Sprintf("Published from %s", item.DisplayType),
	})
	if err != nil {
		return fmt.Errorf("register publish: %w", err)
	}
	item.SetProperty(PropPublishID, record.ID)

	p.logger.Info("registered publish",
		logging.String(logging.FieldItem, item.Name),
		logging.Int("publish_id", record.ID),
		logging.String("path", path))
	return nil
}

func (p *RegisterPlugin) Finalize(ctx context.Context, item *Item) error { return nil }
