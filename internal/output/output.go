package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONMode controls whether output is JSON or human-readable
var JSONMode bool

// Stdout and Stderr are where output goes; tests swap them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Result represents a generic result for JSON output
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Print outputs data. In JSON mode, marshals to JSON. Otherwise calls the textFn.
func Print(data any, textFn func()) {
	if JSONMode {
		out, err := json.MarshalIndent(Result{Success: true, Data: data}, "", "  ")
		if err != nil {
			PrintError(err)
			return
		}
		fmt.Fprintln(Stdout, string(out))
		return
	}
	textFn()
}

// Stream writes one compact JSON line per value in JSON mode, for
// commands that emit a sequence of events. Otherwise calls the textFn.
func Stream(v any, textFn func()) {
	if JSONMode {
		out, err := json.Marshal(v)
		if err != nil {
			fmt.Fprintf(Stderr, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(Stdout, string(out))
		return
	}
	textFn()
}

// Printf writes human-readable text.
func Printf(format string, args ...any) {
	fmt.Fprintf(Stdout, format, args...)
}

// PrintError outputs an error and exits. In JSON mode, marshals error to JSON.
func PrintError(err error) {
	if JSONMode {
		out, _ := json.MarshalIndent(Result{Success: false, Error: err.Error()}, "", "  ")
		fmt.Fprintln(Stdout, string(out))
		exit(1)
		return
	}
	fmt.Fprintf(Stderr, "Error: %v\n", err)
	exit(1)
}
