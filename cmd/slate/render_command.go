package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"slate/internal/ipc"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "render <queue-index>",
		Short: "Force-render one render queue entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil || index < 1 {
				return fmt.Errorf("invalid queue index %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Render(index)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp != nil && resp.Rendered {
					fmt.Fprintf(stdout, "Rendered queue entry %d\n", index)
					return nil
				}
				if resp != nil && resp.Message != "" {
					return fmt.Errorf("render failed: %s", resp.Message)
				}
				return fmt.Errorf("render failed for queue entry %d", index)
			})
		},
	}
}
