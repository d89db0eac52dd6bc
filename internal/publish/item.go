// Package publish implements the publish item tree and the plugin pipeline
// that validates and publishes collected content.
package publish

import "fmt"

// Well-known property keys set by the session collector.
const (
	// PropQueueItem holds the host.QueueItem snapshot behind a rendering
	// item.
	PropQueueItem = "queue_item"
	// PropRenderPaths holds the tokenized output paths of a rendering item.
	PropRenderPaths = "render_paths"
	// PropRenderOnPublish marks a rendering item that still needs a render
	// pass during publish.
	PropRenderOnPublish = "render_on_publish"
	// PropNeedsOutputPath marks a rendering item whose output module has no
	// path assigned yet.
	PropNeedsOutputPath = "needs_output_path"
	// PropDocumentPath holds the project path on the session item.
	PropDocumentPath = "document_path"
)

// Item is one node of the transient publish tree. Items live for a single
// publish run; nothing here is persisted.
type Item struct {
	// Type is a dotted identifier plugins filter on, e.g. "session" or
	// "session.rendering".
	Type string
	// Name is the display name, e.g. a comp name or file name.
	Name string
	// DisplayType is the human-readable type label, e.g. "Rendered Image
	// Sequence".
	DisplayType string

	// Checked/Expanded/Enabled drive the panel tree UI defaults.
	Checked  bool
	Expanded bool
	Enabled  bool

	IconPath      string
	ThumbnailPath string

	properties map[string]any
	parent     *Item
	children   []*Item
}

// NewItem creates a root item, conventionally the session item.
func NewItem(itemType, displayType, name string) *Item {
	return &Item{
		Type:        itemType,
		Name:        name,
		DisplayType: displayType,
		Checked:     true,
		Expanded:    true,
		Enabled:     true,
		properties:  make(map[string]any),
	}
}

// CreateItem adds a child and returns it.
func (i *Item) CreateItem(itemType, displayType, name string) *Item {
	child := NewItem(itemType, displayType, name)
	child.parent = i
	i.children = append(i.children, child)
	return child
}

// Parent returns the parent item, nil for the root.
func (i *Item) Parent() *Item { return i.parent }

// Children returns the direct children in creation order.
func (i *Item) Children() []*Item {
	return append([]*Item(nil), i.children...)
}

// Walk visits the item and every descendant depth-first.
func (i *Item) Walk(fn func(*Item)) {
	fn(i)
	for _, child := range i.children {
		child.Walk(fn)
	}
}

// SetProperty stores an arbitrary value on the item.
func (i *Item) SetProperty(key string, value any) {
	i.properties[key] = value
}

// Property returns a stored value and whether it exists.
func (i *Item) Property(key string) (any, bool) {
	value, ok := i.properties[key]
	return value, ok
}

// BoolProperty returns a bool property, false when absent or mistyped.
func (i *Item) BoolProperty(key string) bool {
	value, ok := i.properties[key]
	if !ok {
		return false
	}
	b, ok := value.(bool)
	return ok && b
}

// StringProperty returns a string property, empty when absent or mistyped.
func (i *Item) StringProperty(key string) string {
	value, ok := i.properties[key]
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

func (i *Item) String() string {
	return fmt.Sprintf("%s (%s)", i.Name, i.Type)
}
