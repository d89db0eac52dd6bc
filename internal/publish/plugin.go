package publish

import (
	"context"
	"path"
)

// Acceptance is a plugin's verdict on an item.
type Acceptance int

const (
	// Rejected means the plugin will not process the item.
	Rejected Acceptance = iota
	// PartiallyAccepted means the plugin processes the item but leaves it
	// unchecked in the tree for the user to opt in.
	PartiallyAccepted
	// FullyAccepted means the plugin processes the item, checked by
	// default.
	FullyAccepted
)

func (a Acceptance) String() string {
	switch a {
	case PartiallyAccepted:
		return "partially_accepted"
	case FullyAccepted:
		return "fully_accepted"
	default:
		return "rejected"
	}
}

// Severity grades a validation issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Action is a remediation the user can trigger for an issue, such as saving
// the project.
type Action struct {
	Label string
	Run   func(ctx context.Context) error
}

// Issue is one validation finding. Error issues block publishing; warnings
// do not. Both are recoverable, unlike publish failures.
type Issue struct {
	Plugin   string
	Item     string
	Severity Severity
	Message  string
	// Remediation is optional; nil means the user has to fix it manually.
	Remediation *Action
}

// Blocking reports whether the issue prevents the publish from starting.
func (i Issue) Blocking() bool { return i.Severity == SeverityError }

// Plugin processes accepted items through validate, publish, and finalize.
type Plugin interface {
	Name() string
	Description() string
	// ItemFilters returns glob patterns matched against item types, e.g.
	// "session.*".
	ItemFilters() []string
	Settings() Settings
	// Accept decides whether this plugin operates on the item.
	Accept(ctx context.Context, item *Item) Acceptance
	// Validate reports issues; error-severity issues block the run.
	Validate(ctx context.Context, item *Item) []Issue
	// Publish performs the work. A returned error aborts this item's task,
	// is logged, and is not retried.
	Publish(ctx context.Context, item *Item) error
	// Finalize runs after every task published successfully.
	Finalize(ctx context.Context, item *Item) error
}

// Matches reports whether the item type matches any of the filters.
func Matches(filters []string, itemType string) bool {
	for _, filter := range filters {
		if ok, err := path.Match(filter, itemType); err == nil && ok {
			return true
		}
	}
	return false
}
