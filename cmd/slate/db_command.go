package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"slate/internal/ipc"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Context database utilities",
	}
	dbCmd.AddCommand(newDBHealthCommand(ctx))
	return dbCmd
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show context database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DatabaseHealth()
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("database health response missing")
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				fmt.Fprintln(stdout, renderStatusLine("Database path", statusInfo, resp.DBPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Exists", statusKindFromPassed(resp.DatabaseExists), yesNo(resp.DatabaseExists), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Readable", statusKindFromPassed(resp.DatabaseReadable), yesNo(resp.DatabaseReadable), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Schema version", statusInfo, strconv.Itoa(resp.SchemaVersion), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Saved contexts", statusInfo, strconv.Itoa(resp.ContextCount), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Publish runs", statusInfo, strconv.Itoa(resp.PublishRunCount), colorize))
				if resp.Error != "" {
					fmt.Fprintln(stdout, renderStatusLine("Last error", statusError, resp.Error, colorize))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
