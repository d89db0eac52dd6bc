package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slate/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List the host render queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if resp == nil || len(resp.Items) == 0 {
					fmt.Fprintln(stdout, "Render queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					rows = append(rows, []string{
						strconv.Itoa(item.Index),
						item.CompName,
						displayStatus(item.Status),
						yesNo(item.Enabled),
						strconv.Itoa(item.FrameCount),
						strings.Join(item.OutputModules, ", "),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"#", "Composition", "Status", "Enabled", "Frames", "Output Modules"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
