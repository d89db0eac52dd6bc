package preflight

import (
	"context"

	"slate/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Paths.ThumbDir != "" {
		results = append(results, CheckDirectoryAccess("Thumbnail directory", cfg.Paths.ThumbDir))
	}

	results = append(results, CheckTemplate("Work template", cfg.Publish.WorkTemplate))
	if cfg.Publish.SequenceTemplate != "" {
		results = append(results, CheckTemplate("Sequence publish template", cfg.Publish.SequenceTemplate))
	}
	if cfg.Publish.MovieTemplate != "" {
		results = append(results, CheckTemplate("Movie publish template", cfg.Publish.MovieTemplate))
	}

	if cfg.Platform.BaseURL != "" {
		results = append(results, CheckPlatform(ctx, cfg.Platform))
	}

	results = append(results, CheckBridgeEndpoint(ctx, cfg.Bridge.Port))

	return results
}
