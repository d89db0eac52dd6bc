package host

import (
	"context"
	"fmt"
	"math"
)

// QueueItem is one entry of the host's render queue. Indices are 1-based to
// match the host's collections.
type QueueItem struct {
	Index    int    `json:"index"`
	CompName string `json:"comp_name"`
	Status   Status `json:"status"`
	Enabled  bool   `json:"enabled"`
	// RenderPaths holds one output path per output module, frame tokens
	// included for sequence renders.
	RenderPaths []string `json:"render_paths"`
	// OutputModules names the template applied to each output module,
	// parallel to RenderPaths.
	OutputModules []string `json:"output_modules"`

	// Comp timing, in seconds. FrameDuration is the length of one frame.
	TimeSpanStart    float64 `json:"time_span_start"`
	TimeSpanDuration float64 `json:"time_span_duration"`
	FrameDuration    float64 `json:"frame_duration"`
	// SkipFrames renders every (SkipFrames+1)th frame.
	SkipFrames int `json:"skip_frames"`
}

// FrameRange converts the item's time span into frame numbers: the first
// frame, the number of rendered frames, and the stride between them.
func (i QueueItem) FrameRange() (start, count, stride int) {
	if i.FrameDuration <= 0 {
		return 0, 0, 1
	}
	start = int(math.Round(i.TimeSpanStart / i.FrameDuration))
	stride = i.SkipFrames + 1
	total := int(math.Round(i.TimeSpanDuration / i.FrameDuration))
	if total <= 0 {
		return start, 0, stride
	}
	count = (total + stride - 1) / stride
	return start, count, stride
}

// RenderQueueItems returns the current render queue in queue order.
func (c *Client) RenderQueueItems(ctx context.Context) ([]QueueItem, error) {
	var out struct {
		Items []QueueItem `json:"items"`
	}
	if err := c.caller.Call(ctx, "renderqueue.items", nil, &out); err != nil {
		return nil, err
	}
	for idx, item := range out.Items {
		if _, err := ParseStatus(string(item.Status)); err != nil {
			return nil, fmt.Errorf("item %d: %w", idx+1, err)
		}
	}
	return out.Items, nil
}

// QueueItemStatus fetches the current status of one queue item.
func (c *Client) QueueItemStatus(ctx context.Context, index int) (Status, error) {
	params := struct {
		Index int `json:"index"`
	}{Index: index}
	var out struct {
		Status string `json:"status"`
	}
	if err := c.caller.Call(ctx, "renderqueue.item_status", params, &out); err != nil {
		return "", err
	}
	return ParseStatus(out.Status)
}

// SetQueueItemEnabled flips the render flag of one queue item.
func (c *Client) SetQueueItemEnabled(ctx context.Context, index int, enabled bool) error {
	params := struct {
		Index   int  `json:"index"`
		Enabled bool `json:"enabled"`
	}{Index: index, Enabled: enabled}
	return c.caller.Call(ctx, "renderqueue.set_enabled", params, nil)
}

// StartRender runs the render queue and blocks until the host reports the
// batch finished. This is the long call the response timeout is sized for.
func (c *Client) StartRender(ctx context.Context) error {
	return c.caller.Call(ctx, "renderqueue.render", nil, nil)
}

// OutputModuleTemplates lists the output module templates the host knows.
func (c *Client) OutputModuleTemplates(ctx context.Context) ([]string, error) {
	var out struct {
		Templates []string `json:"templates"`
	}
	if err := c.caller.Call(ctx, "renderqueue.output_module_templates", nil, &out); err != nil {
		return nil, err
	}
	return out.Templates, nil
}

// ApplyOutputModule applies the named output module template to every output
// module of one queue item.
func (c *Client) ApplyOutputModule(ctx context.Context, index int, template string) error {
	params := struct {
		Index    int    `json:"index"`
		Template string `json:"template"`
	}{Index: index, Template: template}
	return c.caller.Call(ctx, "renderqueue.apply_output_module", params, nil)
}
