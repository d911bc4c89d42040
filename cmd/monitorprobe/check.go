package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monitorcache/monitorcache/pkg/monitor"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check PATH...",
		Short: "Report whether the given dependencies have changed since the last update",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}

			result, err := monitor.CheckMonitor(cfg.Root, cfg.CachePath, dependencyKey(args), dependencyCodec(), logger)
			if err != nil {
				return err
			}

			if result.Changed {
				fmt.Fprintln(cmd.OutOrStdout(), "changed")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "unchanged:", result.Value)
			return nil
		},
	}
	return cmd
}
