package publish

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"slate/internal/config"
	"slate/internal/logging"
)

// ItemRenderer forces one queue item through a render pass.
// *render.Renderer satisfies this.
type ItemRenderer interface {
	ForceItem(ctx context.Context, index int) error
}

// OutputModuleHost is the slice of the host client the render plugin uses to
// inspect and fix output module templates.
type OutputModuleHost interface {
	OutputModuleTemplates(ctx context.Context) ([]string, error)
	ApplyOutputModule(ctx context.Context, index int, template string) error
}

// RenderPlugin renders queue items that have no up-to-date output on disk
// before the downstream plugins pick the files up.
type RenderPlugin struct {
	renderer ItemRenderer
	modules  OutputModuleHost
	cfg      config.Publish
	settings Settings
	logger   *slog.Logger
}

// NewRenderPlugin builds the render plugin. logger may be nil.
func NewRenderPlugin(renderer ItemRenderer, modules OutputModuleHost, cfg config.Publish, logger *slog.Logger) *RenderPlugin {
	return &RenderPlugin{
		renderer: renderer,
		modules:  modules,
		cfg:      cfg,
		settings: Settings{
			"Sequence Output Module": {
				Type:        "string",
				Default:     cfg.SequenceOutputModule,
				Description: "Output module template expected on sequence renders.",
			},
			"Movie Output Module": {
				Type:        "string",
				Default:     cfg.MovieOutputModule,
				Description: "Output module template expected on movie renders.",
			},
		},
		logger: logging.NewComponentLogger(logger, "publish.render"),
	}
}

func (p *RenderPlugin) Name() string { return "render" }

func (p *RenderPlugin) Description() string {
	return "Renders queue items whose output files are missing or stale."
}

func (p *RenderPlugin) ItemFilters() []string { return []string{"session.rendering.*"} }

func (p *RenderPlugin) Settings() Settings { return p.settings }

// Accept takes only items still flagged for a render pass.
func (p *RenderPlugin) Accept(ctx context.Context, item *Item) Acceptance {
	if !item.BoolProperty(PropRenderOnPublish) {
		return Rejected
	}
	return FullyAccepted
}

// Validate checks the item can render at all: an output path must be
// assigned, and when output module checking is on, the expected template must
// exist on the host and be applied to the item (or be forceable).
func (p *RenderPlugin) Validate(ctx context.Context, item *Item) []Issue {
	var issues []Issue
	if item.BoolProperty(PropNeedsOutputPath) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Message:  "output module has no output path assigned",
		})
		return issues
	}
	if !p.cfg.CheckOutputModule {
		return issues
	}

	queueItem, ok := QueueItemOf(item)
	if !ok {
		return issues
	}
	expected := p.expectedModule(item)
	if expected == "" {
		return issues
	}

	known, err := p.modules.OutputModuleTemplates(ctx)
	if err != nil {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("cannot list output module templates: %v", err),
		})
		return issues
	}
	if !slices.Contains(known, expected) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("output module template %q is not installed on this workstation", expected),
		})
		return issues
	}
	if slices.Contains(queueItem.OutputModules, expected) {
		return issues
	}

	issue := Issue{
		Severity: SeverityError,
		Message:  fmt.Sprintf("item does not use output module template %q", expected),
		Remediation: &Action{
			Label: fmt.Sprintf("Apply %q", expected),
			Run: func(ctx context.Context) error {
				return p.modules.ApplyOutputModule(ctx, queueItem.Index, expected)
			},
		},
	}
	if p.cfg.ForceOutputModule {
		// The template gets applied during publish, so this is only
		// informational.
		issue.Severity = SeverityWarning
	}
	issues = append(issues, issue)
	return issues
}

// Publish forces the item through the render queue, applying the expected
// output module first when configured to.
func (p *RenderPlugin) Publish(ctx context.Context, item *Item) error {
	queueItem, ok := QueueItemOf(item)
	if !ok {
		return fmt.Errorf("item %s has no queue entry", item.Name)
	}

	if expected := p.expectedModule(item); expected != "" &&
		p.cfg.ForceOutputModule && !slices.Contains(queueItem.OutputModules, expected) {
		p.logger.Info("applying output module",
			logging.Int(logging.FieldQueueItem, queueItem.Index),
			logging.String("template", expected))
		if err := p.modules.ApplyOutputModule(ctx, queueItem.Index, expected); err != nil {
			return fmt.Errorf("apply output module %q: %w", expected, err)
		}
	}

	if err := p.renderer.ForceItem(ctx, queueItem.Index); err != nil {
		return err
	}
	item.SetProperty(PropRenderOnPublish, false)
	return nil
}

func (p *RenderPlugin) Finalize(ctx context.Context, item *Item) error { return nil }

func (p *RenderPlugin) expectedModule(item *Item) string {
	if IsSequence(item) {
		return p.settings.String("Sequence Output Module")
	}
	return p.settings.String("Movie Output Module")
}
