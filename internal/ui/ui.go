// Package ui prints human-readable CLI output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Out receives all output; tests swap it.
var Out io.Writer = os.Stdout

var (
	okMark   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Render("✓")
	errMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Render("✗")
	warnMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Render("!")
	infoMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Render("ℹ")
	keyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func ShowHeader(title string) {
	fmt.Fprintf(Out, " %s\n", strings.Repeat("─", len(title)+2))
	fmt.Fprintf(Out, " %s\n", title)
	fmt.Fprintf(Out, " %s\n", strings.Repeat("─", len(title)+2))
}

func ShowSuccess(format string, args ...any) {
	fmt.Fprintf(Out, " %s %s\n", okMark, fmt.Sprintf(format, args...))
}

func ShowError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(Out, " %s %s: %v\n", errMark, msg, err)
	} else {
		fmt.Fprintf(Out, " %s %s\n", errMark, msg)
	}
}

func ShowWarning(format string, args ...any) {
	fmt.Fprintf(Out, " %s %s\n", warnMark, fmt.Sprintf(format, args...))
}

func ShowInfo(format string, args ...any) {
	fmt.Fprintf(Out, " %s %s\n", infoMark, fmt.Sprintf(format, args...))
}

// ShowField prints an aligned "key: value" line.
func ShowField(key string, value any) {
	fmt.Fprintf(Out, "   %s %v\n", keyStyle.Render(fmt.Sprintf("%-20s", key+":")), value)
}
