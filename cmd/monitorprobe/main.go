// Command monitorprobe is a small demonstration CLI over the monitor
// engine: it lets a shell script declare file dependencies, update a cache
// for them, and later ask whether anything tracked has changed. It can also
// list the files matching a glob pattern; glob dependencies cannot be
// declared from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/monitorcache/monitorcache/pkg/logging"
)

var (
	configPath string
	rootFlag   string
	cacheFlag  string
	verbose    bool

	logger = logging.RootLogger
)

func resolveConfig() (config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return config{}, err
	}
	if rootFlag != "" {
		cfg.Root = rootFlag
	}
	if cacheFlag != "" {
		cfg.CachePath = cacheFlag
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.CachePath == "" {
		cfg.CachePath = ".monitorprobe.cache"
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "monitorprobe",
		Short:         "Inspect and update file status caches",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger = logging.NewLogger(logging.LevelTrace)
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML configuration file")
	root.PersistentFlags().StringVar(&rootFlag, "root", "", "root directory dependency paths are relative to")
	root.PersistentFlags().StringVar(&cacheFlag, "cache", "", "path to the cache file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable trace-level logging")

	root.AddCommand(newUpdateCommand())
	root.AddCommand(newCheckCommand())
	root.AddCommand(newMatchCommand())

	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "monitorprobe:", err)
		os.Exit(1)
	}
}
