//go:build windows

package commands

import "os"

// shutdownSignals are the signals that stop long-running commands.
// On Windows, only os.Interrupt is available (SIGTERM is not supported).
func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
