package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"slate/internal/ipc"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Collect and publish the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Publish()
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("publish response missing")
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				printPublishIssues(cmd, resp.Issues)
				if resp.Success {
					fmt.Fprintf(stdout, "Publish complete: %d published, %d skipped\n", resp.Published, resp.Skipped)
					return nil
				}
				if strings.TrimSpace(resp.Message) != "" {
					return fmt.Errorf("publish failed: %s", resp.Message)
				}
				return fmt.Errorf("publish failed: %d item(s) failed", resp.Failed)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func printPublishIssues(cmd *cobra.Command, issues []ipc.PublishIssue) {
	if len(issues) == 0 {
		return
	}
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{
			strings.ToUpper(issue.Severity),
			issue.Plugin,
			issue.Item,
			issue.Message,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Severity", "Plugin", "Item", "Message"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	))
}
