package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"flowdash/internal/dashboard"
	"flowdash/internal/live"
	"flowdash/internal/model"
)

func metricCard(label, value string) string {
	return cardStyle.Render(hintStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func (m Model) renderOverview() string {
	sum := m.store.Summary(m.now)

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Active workflows", fmt.Sprintf("%d / %d", sum.ActiveWorkflows, sum.TotalWorkflows)),
		metricCard("Online agents", fmt.Sprintf("%d / %d", sum.OnlineAgents, sum.TotalAgents)),
		metricCard("Pending tasks", fmt.Sprintf("%d", sum.PendingTasks)),
		metricCard("Completed today", fmt.Sprintf("%d", sum.CompletedToday)),
		metricCard("Avg success", fmt.Sprintf("%.1f%%", sum.AvgSuccessRate*100)),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		cards,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Render(m.renderHealth()),
			" ",
			panelStyle.Render(m.renderSuggestionBrief(sum)),
		),
	)
}

func (m Model) renderHealth() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("System health"))
	b.WriteString("\n")

	switch st := m.status["health"]; {
	case st.err != nil:
		b.WriteString("API       " + statusErrorStyle.Render("unreachable") + "\n")
	case m.health != nil:
		b.WriteString("API       " + statusOkStyle.Render(m.health.Status))
		if m.health.Version != "" {
			b.WriteString(hintStyle.Render(" v" + m.health.Version))
		}
		b.WriteString("\n")
	default:
		b.WriteString("API       " + m.spinner.View() + "\n")
	}

	b.WriteString("Live      ")
	switch {
	case m.live.Connected:
		b.WriteString(statusOkStyle.Render("connected"))
	case m.live.Reason == live.ReasonNone:
		b.WriteString(hintStyle.Render("connecting"))
	default:
		b.WriteString(statusErrorStyle.Render("disconnected (" + string(m.live.Reason) + ")"))
	}
	b.WriteString("\n")

	if env := m.lastEnv; env != nil {
		b.WriteString(hintStyle.Render(fmt.Sprintf("last event %s %s", env.Type, env.EntityID())))
	}
	return b.String()
}

func (m Model) renderSuggestionBrief(sum dashboard.Summary) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Suggestions"))
	b.WriteString("\n")
	if sum.PendingSuggestions == 0 {
		b.WriteString(hintStyle.Render("nothing awaiting review"))
		return b.String()
	}
	b.WriteString(statusWarnStyle.Render(fmt.Sprintf("%d awaiting review", sum.PendingSuggestions)))
	return b.String()
}

func (m Model) renderWorkflows() string {
	workflows := m.store.Workflows()
	if len(workflows) == 0 {
		if m.status["workflows"].loading {
			return m.spinner.View() + " loading workflows"
		}
		return hintStyle.Render("No workflows. Press 'r' to refresh.")
	}

	var left strings.Builder
	left.WriteString(labelStyle.Render("Workflows"))
	left.WriteString("\n\n")
	for i, wf := range workflows {
		prefix := "  "
		name := lipgloss.NewStyle()
		if i == m.cursor {
			prefix = "▸ "
			name = name.Foreground(primaryColor).Bold(true)
		}
		left.WriteString(prefix + name.Render(wf.Name) + " " +
			workflowStatusStyle(wf.Status).Render(string(wf.Status)) + "\n")
		left.WriteString("  " + m.bar.ViewAs(float64(wf.Progress)/100) +
			hintStyle.Render(fmt.Sprintf(" %3d%%  %d/%d tasks", wf.Progress, wf.CompletedTasks, wf.TaskCount)) + "\n")
	}

	var right strings.Builder
	if m.cursor < len(workflows) {
		wf := workflows[m.cursor]
		right.WriteString(labelStyle.Render(wf.Name))
		right.WriteString("\n")
		if wf.Description != "" {
			right.WriteString(wf.Description + "\n")
		}
		right.WriteString(hintStyle.Render("updated "+wf.UpdatedAt.Local().Format(time.Kitchen)) + "\n\n")

		tasks := m.store.Tasks(wf.ID)
		if len(tasks) == 0 {
			right.WriteString(hintStyle.Render("no tasks"))
		}
		for _, t := range tasks {
			line := fmt.Sprintf("%s  %s", taskStatusStyle(t.Status).Render(fmt.Sprintf("%-11s", t.Status)), t.Name)
			if t.Progress != nil && t.Status == model.TaskInProgress {
				line += hintStyle.Render(fmt.Sprintf(" %d%%", *t.Progress))
			}
			right.WriteString(line + "\n")
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().MarginRight(4).Render(left.String()),
		right.String(),
	)
}

func (m Model) renderAgents() string {
	agents := m.store.Agents()
	if len(agents) == 0 {
		if m.status["agents"].loading {
			return m.spinner.View() + " loading agents"
		}
		return hintStyle.Render("No agents registered.")
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-20s %-8s %8s %7s  %s", "Agent", "Status", "Success", "Tasks", "Current task")))
	b.WriteString("\n")
	for _, a := range agents {
		current := a.CurrentTaskID
		if current == "" {
			current = "-"
		}
		b.WriteString(fmt.Sprintf("%-20s %s %7.1f%% %7d  %s\n",
			a.Name,
			agentStatusStyle(a.Status).Render(fmt.Sprintf("%-8s", a.Status)),
			a.SuccessRate*100,
			a.TotalTasks,
			current,
		))
	}
	return b.String()
}

func (m Model) renderSuggestions() string {
	pending := m.store.PendingSuggestions()
	if len(pending) == 0 {
		if m.status["suggestions"].loading {
			return m.spinner.View() + " loading suggestions"
		}
		return hintStyle.Render("Nothing awaiting review.")
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Pending suggestions"))
	b.WriteString("\n\n")
	for _, sg := range pending {
		agent := sg.AgentID
		if a, ok := m.store.Agent(sg.AgentID); ok {
			agent = a.Name
		}
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			statusWarnStyle.Render(sg.Action),
			hintStyle.Render(fmt.Sprintf("%.0f%%", sg.Confidence*100)),
			hintStyle.Render("by "+agent+" on "+sg.TaskID),
		))
		if sg.Reasoning != "" {
			b.WriteString("  " + sg.Reasoning + "\n")
		}
	}
	return b.String()
}
