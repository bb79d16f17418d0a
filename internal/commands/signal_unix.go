//go:build !windows

package commands

import (
	"os"
	"syscall"
)

// shutdownSignals are the signals that stop long-running commands. On
// Unix-like systems SIGTERM is included.
func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
