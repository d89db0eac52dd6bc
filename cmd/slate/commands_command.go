package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"slate/internal/ipc"
)

func newCommandsCommand(ctx *commandContext) *cobra.Command {
	var run int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List or trigger panel shelf commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()
				if run > 0 {
					resp, err := client.TriggerCommand(run)
					if err != nil {
						return err
					}
					if resp == nil || !resp.Triggered {
						if resp != nil && resp.Message != "" {
							return fmt.Errorf("trigger command: %s", resp.Message)
						}
						return errors.New("command not triggered")
					}
					fmt.Fprintf(stdout, "Triggered command %d\n", run)
					return nil
				}

				resp, err := client.Commands()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				if resp == nil || len(resp.Commands) == 0 {
					fmt.Fprintln(stdout, "No commands registered")
					return nil
				}
				rows := make([][]string, 0, len(resp.Commands))
				for _, command := range resp.Commands {
					rows = append(rows, []string{
						strconv.Itoa(command.UID),
						command.DisplayName,
						command.Group,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"UID", "Command", "Group"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&run, "run", 0, "Trigger the command with this uid")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
