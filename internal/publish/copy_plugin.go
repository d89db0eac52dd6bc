package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"slate/internal/config"
	"slate/internal/logging"
	"slate/internal/sequence"
	"slate/internal/template"
)

// Properties set by the copy plugin for the plugins further down the chain.
const (
	// PropPublishPath is the resolved destination path, frame tokens
	// included for sequences.
	PropPublishPath = "publish_path"
	// PropPublishVersion is the version number extracted from the work
	// file, 0 when the work template carries none.
	PropPublishVersion = "publish_version"
)

// CopyPlugin moves rendered output from the render location to the
// template-resolved publish location, verifying every copied file.
type CopyPlugin struct {
	cfg      config.Publish
	settings Settings
	logger   *slog.Logger
}

// NewCopyPlugin builds the copy plugin. logger may be nil.
func NewCopyPlugin(cfg config.Publish, logger *slog.Logger) *CopyPlugin {
	return &CopyPlugin{
		cfg: cfg,
		settings: Settings{
			"Sequence Publish Template": {
				Type:        "string",
				Default:     cfg.SequenceTemplate,
				Description: "Path template for published image sequences.",
			},
			"Movie Publish Template": {
				Type:        "string",
				Default:     cfg.MovieTemplate,
				Description: "Path template for published movies.",
			},
		},
		logger: logging.NewComponentLogger(logger, "publish.copy"),
	}
}

func (p *CopyPlugin) Name() string { return "copy" }

func (p *CopyPlugin) Description() string {
	return "Copies rendered files to the configured publish location."
}

func (p *CopyPlugin) ItemFilters() []string { return []string{"session.rendering.*"} }

func (p *CopyPlugin) Settings() Settings { return p.settings }

// Accept takes rendering items that have output paths assigned.
func (p *CopyPlugin) Accept(ctx context.Context, item *Item) Acceptance {
	if item.BoolProperty(PropNeedsOutputPath) {
		return Rejected
	}
	if p.targetTemplate(item) == "" {
		return Rejected
	}
	return FullyAccepted
}

// Validate makes sure the publish path can actually be resolved: the
// templates must parse and every field must be derivable from the work file
// path.
func (p *CopyPlugin) Validate(ctx context.Context, item *Item) []Issue {
	var issues []Issue
	dest, err := p.resolveDestination(item)
	if err != nil {
		issues = append(issues, Issue{Severity: SeverityError, Message: err.Error()})
		return issues
	}
	probe := dest
	if sequence.HasToken(dest) {
		probe = filepath.Dir(dest)
	}
	if _, err := os.Stat(probe); err == nil {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("publish destination %s already exists and will be overwritten", probe),
		})
	}
	return issues
}

// Publish copies every rendered file into the publish location. Sequences
// keep their frame numbering; each copy is hash-verified.
func (p *CopyPlugin) Publish(ctx context.Context, item *Item) error {
	dest, err := p.resolveDestination(item)
	if err != nil {
		return err
	}
	queueItem, ok := QueueItemOf(item)
	if !ok {
		return fmt.Errorf("item %s has no queue entry", item.Name)
	}
	if len(queueItem.RenderPaths) == 0 {
		return fmt.Errorf("item %s has no render output", item.Name)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create publish directory: %w", err)
	}

	// Only the first output module gets published; extra modules are
	// previews or proxies.
	src := queueItem.RenderPaths[0]
	copied := 0
	if sequence.HasToken(src) {
		if !sequence.HasToken(dest) {
			return fmt.Errorf("publish template %q lacks a frame token for sequence output", p.targetTemplate(item))
		}
		start, count, stride := queueItem.FrameRange()
		for i := 0; i < count; i++ {
			frame := start + i*stride
			if err := deliverFile(sequence.FramePath(src, frame), sequence.FramePath(dest, frame)); err != nil {
				return fmt.Errorf("copy frame %d: %w", frame, err)
			}
			copied++
		}
	} else {
		if err := deliverFile(src, dest); err != nil {
			return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
		}
		copied = 1
	}

	item.SetProperty(PropPublishPath, dest)
	item.SetProperty(PropPublishVersion, p.workVersion(item))
	p.logger.Info("published files",
		logging.String(logging.FieldItem, item.Name),
		logging.Int("files", copied),
		logging.String("path", dest))
	return nil
}

func (p *CopyPlugin) Finalize(ctx context.Context, item *Item) error { return nil }

func (p *CopyPlugin) targetTemplate(item *Item) string {
	if IsSequence(item) {
		return p.settings.String("Sequence Publish Template")
	}
	return p.settings.String("Movie Publish Template")
}

// resolveDestination applies the publish template with fields extracted from
// the work file path plus the item name.
func (p *CopyPlugin) resolveDestination(item *Item) (string, error) {
	raw := p.targetTemplate(item)
	if raw == "" {
		return "", fmt.Errorf("no publish template configured for %s items", item.DisplayType)
	}
	tmpl, err := template.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("publish template: %w", err)
	}
	values, err := p.workFields(item)
	if err != nil {
		return "", err
	}
	values["name"] = sanitizeName(item.Name)
	if missing := tmpl.MissingKeys(values); len(missing) > 0 {
		return "", fmt.Errorf("cannot resolve publish path: missing fields %s", strings.Join(missing, ", "))
	}
	return tmpl.Apply(values)
}

// workFields extracts template fields from the document path using the work
// template, for example the shot and version number.
func (p *CopyPlugin) workFields(item *Item) (map[string]string, error) {
	values := make(map[string]string)
	if p.cfg.WorkTemplate == "" {
		return values, nil
	}
	documentPath := documentPathOf(item)
	if documentPath == "" {
		return nil, fmt.Errorf("project is unsaved, cannot derive publish fields")
	}
	tmpl, err := template.Parse(p.cfg.WorkTemplate)
	if err != nil {
		return nil, fmt.Errorf("work template: %w", err)
	}
	extracted, err := tmpl.Extract(documentPath)
	if err != nil {
		return nil, fmt.Errorf("work file %s does not match the work template: %w", filepath.Base(documentPath), err)
	}
	for key, value := range extracted {
		values[key] = value
	}
	return values, nil
}

func (p *CopyPlugin) workVersion(item *Item) int {
	values, err := p.workFields(item)
	if err != nil {
		return 0
	}
	version, _ := strconv.Atoi(values["version"])
	return version
}

func documentPathOf(item *Item) string {
	for node := item; node != nil; node = node.Parent() {
		if path := node.StringProperty(PropDocumentPath); path != "" {
			return path
		}
	}
	return ""
}

func sanitizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
	return strings.Trim(cleaned, "_")
}
