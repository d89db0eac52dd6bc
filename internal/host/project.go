package host

import "context"

// ProjectPath returns the absolute path of the open project, or an empty
// string for a project that has never been saved.
func (c *Client) ProjectPath(ctx context.Context) (string, error) {
	var out struct {
		Path string `json:"path"`
	}
	if err := c.caller.Call(ctx, "project.path", nil, &out); err != nil {
		return "", err
	}
	return out.Path, nil
}

// SaveProject saves the open project in place. The host fails the call when
// the project has no path yet.
func (c *Client) SaveProject(ctx context.Context) error {
	return c.caller.Call(ctx, "project.save", nil, nil)
}

// SaveProjectAs saves the open project to path.
func (c *Client) SaveProjectAs(ctx context.Context, path string) error {
	params := struct {
		Path string `json:"path"`
	}{Path: path}
	return c.caller.Call(ctx, "project.save_as", params, nil)
}

// OpenProject opens the project at path, replacing the current one.
func (c *Client) OpenProject(ctx context.Context, path string) error {
	params := struct {
		Path string `json:"path"`
	}{Path: path}
	return c.caller.Call(ctx, "project.open", params, nil)
}

// ProjectDirty reports whether the open project has unsaved changes.
func (c *Client) ProjectDirty(ctx context.Context) (bool, error) {
	var out struct {
		Dirty bool `json:"dirty"`
	}
	if err := c.caller.Call(ctx, "project.dirty", nil, &out); err != nil {
		return false, err
	}
	return out.Dirty, nil
}
