// Package logging provides the nil-safe, level-filtered logger used
// throughout the monitor engine to report probe decisions without resorting
// to ad hoc fmt.Println diagnostics.
package logging

import (
	"log"
	"os"
)

func init() {
	// Set the global logger to use standard error so that stdout remains
	// available for command output.
	log.SetOutput(os.Stderr)
}
