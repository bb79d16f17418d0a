package tui

import (
	"github.com/charmbracelet/lipgloss"

	"flowdash/internal/model"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // purple
	secondaryColor = lipgloss.Color("#10B981") // green
	mutedColor     = lipgloss.Color("#6B7280") // gray
	dangerColor    = lipgloss.Color("#EF4444") // red
	warnColor      = lipgloss.Color("#F59E0B") // yellow
	infoColor      = lipgloss.Color("#3B82F6") // blue

	// App frame
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	// Title bar
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1)

	// Active tab
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Underline(true)

	// Inactive tab
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	// Metric cards
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 2).
			MarginRight(1)

	cardValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E5E7EB"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	hintStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	// Status indicators
	statusOkStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	statusWarnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(dangerColor)

	statusInfoStyle = lipgloss.NewStyle().
			Foreground(infoColor)

	// Help bar
	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(1, 0, 0, 0)
)

func workflowStatusStyle(s model.WorkflowStatus) lipgloss.Style {
	switch s {
	case model.WorkflowRunning:
		return statusInfoStyle
	case model.WorkflowCompleted:
		return statusOkStyle
	case model.WorkflowFailed:
		return statusErrorStyle
	case model.WorkflowPaused:
		return statusWarnStyle
	}
	return hintStyle
}

func agentStatusStyle(s model.AgentStatus) lipgloss.Style {
	switch s {
	case model.AgentOnline, model.AgentIdle:
		return statusOkStyle
	case model.AgentBusy:
		return statusWarnStyle
	}
	return statusErrorStyle
}

func taskStatusStyle(s model.TaskStatus) lipgloss.Style {
	switch s {
	case model.TaskInProgress:
		return statusInfoStyle
	case model.TaskCompleted:
		return statusOkStyle
	case model.TaskFailed:
		return statusErrorStyle
	case model.TaskSkipped:
		return statusWarnStyle
	}
	return hintStyle
}
