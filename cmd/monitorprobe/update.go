package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/monitorcache/monitorcache/pkg/monitor"
)

var updateHashed bool

func dependencyCodec() monitor.JSONCodec[[]string, string] {
	return monitor.JSONCodec[[]string, string]{}
}

// dependencyKey canonicalizes the declared path arguments into a stable,
// sorted key, so that declaring a different dependency set is itself
// treated as a cache-invalidating change.
func dependencyKey(paths []string) []string {
	key := append([]string(nil), paths...)
	sort.Strings(key)
	return key
}

func buildDependencies(paths []string, hashed bool) []monitor.Dependency {
	deps := make([]monitor.Dependency, 0, len(paths))
	for _, p := range paths {
		if hashed {
			deps = append(deps, monitor.HashedFileDependency{Path: p})
		} else {
			deps = append(deps, monitor.FileDependency{Path: p})
		}
	}
	return deps
}

func newUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update PATH...",
		Short: "Record the current state of the given file dependencies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}

			deps := buildDependencies(args, updateHashed)
			runID := uuid.New().String()
			summary := fmt.Sprintf("updated %d dependencies at %s (run %s)",
				len(deps), humanize.Time(time.Now()), runID)

			if err := monitor.UpdateMonitor(
				cfg.Root, cfg.CachePath, dependencyKey(args), summary, deps, dependencyCodec(), logger,
			); err != nil {
				return errors.Wrap(err, "unable to update monitor cache")
			}

			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&updateHashed, "hash", false, "track dependencies by content hash instead of modification time alone")
	return cmd
}
