package controller

import (
	"context"
	"fmt"
	"sync"
)

// CommandFunc is the action behind a registered panel command.
type CommandFunc func(ctx context.Context) error

// Command is one entry of the panel's command shelf.
type Command struct {
	UID         int    `json:"uid"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Group       string `json:"group,omitempty"`

	run CommandFunc
}

// Registry assigns monotonically increasing uids to commands and dispatches
// invocations from the panel. Uids are never reused within a process, so a
// stale panel click after re-registration cannot hit the wrong command.
type Registry struct {
	mu       sync.Mutex
	nextUID  int
	commands []Command
}

// NewRegistry returns an empty registry. Uids start at 1; 0 means unset.
func NewRegistry() *Registry {
	return &Registry{nextUID: 1}
}

// Register adds a command and returns its uid.
func (r *Registry) Register(name, displayName, group string, run CommandFunc) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid := r.nextUID
	r.nextUID++
	r.commands = append(r.commands, Command{
		UID:         uid,
		Name:        name,
		DisplayName: displayName,
		Group:       group,
		run:         run,
	})
	return uid
}

// Clear drops all registered commands, keeping the uid counter.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}

// Invoke runs the command with the given uid.
func (r *Registry) Invoke(ctx context.Context, uid int) error {
	r.mu.Lock()
	var run CommandFunc
	name := ""
	for _, cmd := range r.commands {
		if cmd.UID == uid {
			run = cmd.run
			name = cmd.Name
			break
		}
	}
	r.mu.Unlock()

	if run == nil {
		return fmt.Errorf("no command with uid %d", uid)
	}
	if err := run(ctx); err != nil {
		return fmt.Errorf("command %s: %w", name, err)
	}
	return nil
}

// List returns the commands for the panel shelf: favorites first, in the
// order the favorites list names them, then the rest in registration order.
func (r *Registry) List(favorites []string) []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName := make(map[string]Command, len(r.commands))
	for _, cmd := range r.commands {
		if _, ok := byName[cmd.Name]; !ok {
			byName[cmd.Name] = cmd
		}
	}

	out := make([]Command, 0, len(r.commands))
	seen := make(map[int]struct{}, len(r.commands))
	for _, name := range favorites {
		cmd, ok := byName[name]
		if !ok {
			continue
		}
		if _, dup := seen[cmd.UID]; dup {
			continue
		}
		seen[cmd.UID] = struct{}{}
		out = append(out, cmd)
	}
	for _, cmd := range r.commands {
		if _, dup := seen[cmd.UID]; dup {
			continue
		}
		seen[cmd.UID] = struct{}{}
		out = append(out, cmd)
	}
	return out
}
