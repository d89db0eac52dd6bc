package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"slate/internal/api"
	"slate/internal/config"
	"slate/internal/logs"
	"slate/internal/logstream"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var component string
	var level string
	var search string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			opts := logstream.Options{
				Lines:  lines,
				Follow: follow,
				Filters: logstream.Filters{
					Component: component,
					Level:     level,
					Search:    search,
				},
			}

			apiClient, err := logs.NewStreamClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
			if err != nil {
				return fmt.Errorf("log API address: %w", err)
			}

			client, dialErr := ctx.dialClient()
			var tail logstream.TailClient
			if dialErr == nil {
				defer client.Close()
				tail = client
			}
			if apiClient == nil && dialErr != nil {
				// Daemon is down entirely; read the log file directly.
				if component != "" || level != "" || search != "" {
					return errors.New("log filters need a running daemon; start it with `slate start`")
				}
				return tailLogFile(cmd, cfg, lines, follow)
			}

			printed, err := logstream.Stream(cmd.Context(), apiClient, tail, opts, func(evt api.LogEvent) {
				fmt.Fprintln(stdout, formatLogEvent(evt))
			})
			if err != nil {
				if errors.Is(err, logstream.ErrFiltersRequireAPI) {
					return errors.New("log filters need the daemon HTTP API; set paths.api_bind in the configuration")
				}
				return err
			}
			if !printed && !follow {
				fmt.Fprintln(stdout, "No log entries available")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of entries to show (0 for all buffered)")
	cmd.Flags().StringVar(&component, "component", "", "Only show entries from one component")
	cmd.Flags().StringVar(&level, "level", "", "Only show entries at this level")
	cmd.Flags().StringVar(&search, "search", "", "Only show entries containing this text")
	return cmd
}

func formatLogEvent(evt api.LogEvent) string {
	ts := displayTimestamp(evt.Time)
	level := strings.ToUpper(strings.TrimSpace(evt.Level))
	if level == "" {
		level = "INFO"
	}
	parts := []string{ts, level}
	if component := strings.TrimSpace(evt.Component); component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	line := strings.Join(parts, " ")
	if message := strings.TrimSpace(evt.Message); message != "" {
		line += " " + message
	}
	return line
}

// tailLogFile reads the daemon log file directly, for when neither the HTTP
// API nor the control socket is reachable.
func tailLogFile(cmd *cobra.Command, cfg *config.Config, lines int, follow bool) error {
	path := filepath.Join(cfg.Paths.LogDir, "slate.log")
	stdout := cmd.OutOrStdout()

	offset := int64(-1)
	printed := false
	for {
		result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{
			Offset: offset,
			Limit:  lines,
			Follow: follow,
			Wait:   time.Second,
		})
		if err != nil {
			return fmt.Errorf("tail log file: %w", err)
		}
		for _, line := range result.Lines {
			fmt.Fprintln(stdout, line)
			printed = true
		}
		offset = result.Offset
		lines = 0
		if !follow {
			if !printed {
				fmt.Fprintln(stdout, "No log entries available")
			}
			return nil
		}
		select {
		case <-cmd.Context().Done():
			return nil
		default:
		}
	}
}
