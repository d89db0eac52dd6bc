package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slate/internal/launcher"
	"slate/internal/logging"
)

func newLaunchCommand(ctx *commandContext) *cobra.Command {
	var version string
	var listOnly bool

	cmd := &cobra.Command{
		Use:   "launch [project-file]",
		Short: "Launch the host application with the panel bridge configured",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			scanner := launcher.NewScanner(cfg, logging.NewNop())
			installs := scanner.Scan()
			stdout := cmd.OutOrStdout()
			if len(installs) == 0 {
				return fmt.Errorf("no host application installs found; configure launcher.extra_match_templates")
			}

			if listOnly {
				rows := make([][]string, 0, len(installs))
				for _, install := range installs {
					rows = append(rows, []string{install.Version, install.Path})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Version", "Path"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			}

			selected := installs[0]
			if version != "" {
				found := false
				for _, install := range installs {
					if install.Version == version {
						selected = install
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("version %s not installed (run `slate launch --list`)", version)
				}
			}

			fileToOpen := ""
			if len(args) == 1 {
				fileToOpen = args[0]
			}
			spec := scanner.PrepareLaunch(selected, fileToOpen)
			if err := scanner.Launch(cmd.Context(), spec); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Launched %s (version %s)\n", selected.Path, selected.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Launch a specific installed version")
	cmd.Flags().BoolVar(&listOnly, "list", false, "List detected installs without launching")
	return cmd
}
