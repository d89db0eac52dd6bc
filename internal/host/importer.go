package host

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// ImportKind is how a file enters the host project.
type ImportKind string

const (
	ImportProject           ImportKind = "project"
	ImportComp              ImportKind = "comp"
	ImportCompCroppedLayers ImportKind = "comp_cropped_layers"
	ImportFootage           ImportKind = "footage"
)

// importKindByExt fixes the import kind for extensions whose handling never
// depends on capability probing.
var importKindByExt = map[string]ImportKind{
	".aep":  ImportProject,
	".aepx": ImportProject,
	".aet":  ImportProject,
}

// importProbeOrder is the preference order when the host is asked which
// kinds a file supports.
var importProbeOrder = []ImportKind{
	ImportProject,
	ImportComp,
	ImportCompCroppedLayers,
	ImportFootage,
}

// CanImportAs asks the host whether path can be imported with the given kind.
func (c *Client) CanImportAs(ctx context.Context, path string, kind ImportKind) (bool, error) {
	params := struct {
		Path string `json:"path"`
		Kind string `json:"kind"`
	}{Path: path, Kind: string(kind)}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.caller.Call(ctx, "footage.can_import_as", params, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

// ResolveImportKind picks the import kind for path: the extension default if
// one exists, otherwise the first kind the host accepts in preference order.
func (c *Client) ResolveImportKind(ctx context.Context, path string) (ImportKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := importKindByExt[ext]; ok {
		return kind, nil
	}
	for _, kind := range importProbeOrder {
		ok, err := c.CanImportAs(ctx, path, kind)
		if err != nil {
			return "", err
		}
		if ok {
			return kind, nil
		}
	}
	return "", fmt.Errorf("host cannot import %s under any kind", path)
}

// ImportOptions controls a footage import.
type ImportOptions struct {
	// Kind overrides automatic resolution when non-empty.
	Kind ImportKind
	// Sequence imports path as the first frame of an image sequence.
	Sequence bool
	// TargetComp adds the imported item to the named comp when non-empty.
	TargetComp string
}

// ImportFile brings path into the project. The resolved kind is returned so
// callers can report what happened.
func (c *Client) ImportFile(ctx context.Context, path string, opts ImportOptions) (ImportKind, error) {
	kind := opts.Kind
	if kind == "" {
		resolved, err := c.ResolveImportKind(ctx, path)
		if err != nil {
			return "", err
		}
		kind = resolved
	}

	params := struct {
		Path       string `json:"path"`
		Kind       string `json:"kind"`
		Sequence   bool   `json:"sequence"`
		TargetComp string `json:"target_comp,omitempty"`
	}{Path: path, Kind: string(kind), Sequence: opts.Sequence, TargetComp: opts.TargetComp}
	if err := c.caller.Call(ctx, "footage.import", params, nil); err != nil {
		return "", err
	}
	return kind, nil
}
