package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"slate/internal/contextstore"
	"slate/internal/logging"
)

// ErrValidationFailed is returned when error-severity issues block the run.
var ErrValidationFailed = errors.New("publish: validation failed")

// HistoryRecorder persists finished runs. *contextstore.Store satisfies this.
type HistoryRecorder interface {
	RecordPublishRun(ctx context.Context, run contextstore.PublishRun) (int64, error)
}

// Task is one plugin bound to one accepted item.
type Task struct {
	plugin Plugin
	item   *Item
	active bool
}

// Plugin returns the bound plugin.
func (t Task) Plugin() Plugin { return t.plugin }

// Item returns the bound item.
func (t Task) Item() *Item { return t.item }

// Result summarizes one publish run.
type Result struct {
	Root      *Item
	Issues    []Issue
	Published int
	Failed    int
	Skipped   int
}

// Runner drives the collect, validate, publish, finalize phases over a set of
// plugins.
type Runner struct {
	collector *Collector
	plugins   []Plugin
	history   HistoryRecorder
	logger    *slog.Logger
}

// NewRunner builds a Runner. history and logger may be nil.
func NewRunner(collector *Collector, plugins []Plugin, history HistoryRecorder, logger *slog.Logger) *Runner {
	return &Runner{
		collector: collector,
		plugins:   plugins,
		history:   history,
		logger:    logging.NewComponentLogger(logger, "publish"),
	}
}

// Plan collects the session tree and matches plugins to items. The returned
// tasks reflect acceptance: rejected pairings are dropped, partially accepted
// items start unchecked.
func (r *Runner) Plan(ctx context.Context) (*Item, []Task, error) {
	root, err := r.collector.Collect(ctx)
	if err != nil {
		return nil, nil, err
	}

	var tasks []Task
	root.Walk(func(item *Item) {
		for _, plugin := range r.plugins {
			if !Matches(plugin.ItemFilters(), item.Type) {
				continue
			}
			switch plugin.Accept(ctx, item) {
			case FullyAccepted:
				tasks = append(tasks, Task{plugin: plugin, item: item, active: true})
			case PartiallyAccepted:
				item.Checked = false
				tasks = append(tasks, Task{plugin: plugin, item: item, active: true})
			default:
				r.logger.Debug("plugin rejected item",
					logging.String(logging.FieldPlugin, plugin.Name()),
					logging.String(logging.FieldItem, item.String()))
			}
		}
	})
	return root, tasks, nil
}

// Validate runs every task's validation and returns all issues. The run may
// proceed only when none of them is blocking.
func (r *Runner) Validate(ctx context.Context, tasks []Task) []Issue {
	var issues []Issue
	for _, t := range tasks {
		if !t.active {
			continue
		}
		for _, issue := range t.plugin.Validate(ctx, t.item) {
			issue.Plugin = t.plugin.Name()
			issue.Item = t.item.String()
			level := slog.LevelWarn
			if issue.Blocking() {
				level = slog.LevelError
			}
			r.logger.Log(ctx, level, issue.Message,
				logging.String(logging.FieldPlugin, issue.Plugin),
				logging.String(logging.FieldItem, issue.Item))
			issues = append(issues, issue)
		}
	}
	return issues
}

// Run executes the full pipeline. Validation issues with error severity stop
// the run before anything publishes. A publish failure aborts that task and
// skips its finalize, but the remaining tasks still run. The outcome is
// recorded in history either way.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	started := time.Now().UTC()
	root, tasks, err := r.Plan(ctx)
	if err != nil {
		return Result{}, err
	}

	result := Result{Root: root}
	result.Issues = r.Validate(ctx, tasks)
	blocking := 0
	for _, issue := range result.Issues {
		if issue.Blocking() {
			blocking++
		}
	}
	if blocking > 0 {
		err := fmt.Errorf("%w: %d blocking issue(s)", ErrValidationFailed, blocking)
		r.record(ctx, root, started, result, err)
		return result, err
	}

	for i := range tasks {
		t := &tasks[i]
		if !t.item.Checked {
			t.active = false
			result.Skipped++
			continue
		}
		if err := t.plugin.Publish(ctx, t.item); err != nil {
			// No retry: the task is dead for this run, finalize skipped.
			t.active = false
			result.Failed++
			r.logger.Error("publish task failed",
				logging.String(logging.FieldPlugin, t.plugin.Name()),
				logging.String(logging.FieldItem, t.item.String()),
				logging.Error(err))
			continue
		}
		result.Published++
	}

	for _, t := range tasks {
		if !t.active {
			continue
		}
		if err := t.plugin.Finalize(ctx, t.item); err != nil {
			r.logger.Warn("finalize failed",
				logging.String(logging.FieldPlugin, t.plugin.Name()),
				logging.String(logging.FieldItem, t.item.String()),
				logging.Error(err))
		}
	}

	var runErr error
	if result.Failed > 0 {
		runErr = fmt.Errorf("publish: %d of %d task(s) failed", result.Failed, result.Failed+result.Published)
	}
	r.record(ctx, root, started, result, runErr)
	return result, runErr
}

func (r *Runner) record(ctx context.Context, root *Item, started time.Time, result Result, runErr error) {
	if r.history == nil {
		return
	}
	run := contextstore.PublishRun{
		DocumentPath:   root.StringProperty(PropDocumentPath),
		StartedAt:      started,
		FinishedAt:     time.Now().UTC(),
		ItemsTotal:     result.Published + result.Failed + result.Skipped,
		ItemsPublished: result.Published,
		ItemsFailed:    result.Failed,
		Success:        runErr == nil,
	}
	if runErr != nil {
		run.Message = runErr.Error()
	}
	if _, err := r.history.RecordPublishRun(ctx, run); err != nil {
		r.logger.Warn("cannot record publish run", logging.Error(err))
	}
}
