package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"slate/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded publish runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PublishHistory(limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if resp == nil || len(resp.Runs) == 0 {
					fmt.Fprintln(stdout, "No publish runs recorded")
					return nil
				}

				rows := make([][]string, 0, len(resp.Runs))
				for _, run := range resp.Runs {
					result := "failed"
					if run.Success {
						result = "ok"
					}
					rows = append(rows, []string{
						strconv.FormatInt(run.ID, 10),
						displayTimestamp(run.StartedAt),
						run.DocumentPath,
						fmt.Sprintf("%d/%d", run.ItemsPublished, run.ItemsTotal),
						result,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"#", "Started", "Document", "Published", "Result"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
