package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monitorcache/monitorcache/pkg/monitor"
)

func newMatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match PATTERN",
		Short: "List files under the root matching a slash-separated glob pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}

			gp, err := parseGlobPattern(args[0])
			if err != nil {
				return err
			}

			matches, err := monitor.MatchFileGlob(cfg.Root, gp)
			if err != nil {
				return err
			}

			for _, m := range matches {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
	return cmd
}
