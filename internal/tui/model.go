package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"flowdash/internal/config"
	"flowdash/internal/dashboard"
	"flowdash/internal/fetch"
	"flowdash/internal/live"
	"flowdash/internal/model"
)

type panel int

const (
	panelOverview panel = iota
	panelWorkflows
	panelAgents
	panelSuggestions
	panelCount
)

var panelNames = [...]string{"Overview", "Workflows", "Agents", "Suggestions"}

// Collection paths. The page size covers a dashboard-sized backend.
const (
	workflowsPath   = "/api/workflows?limit=200"
	agentsPath      = "/api/agents?limit=200"
	tasksPath       = "/api/tasks?limit=200"
	suggestionsPath = "/api/suggestions?limit=200"
	healthPath      = "/api/health"
)

type (
	workflowsMsg   fetch.State[model.ListResponse[model.Workflow]]
	agentsMsg      fetch.State[model.ListResponse[model.Agent]]
	tasksMsg       fetch.State[model.ListResponse[model.Task]]
	suggestionsMsg fetch.State[model.ListResponse[model.Suggestion]]
	healthMsg      fetch.State[model.Health]
	liveMsg        live.Snapshot
)

// clockTickMsg refreshes time-relative figures such as "completed today".
type clockTickMsg time.Time

func clockTick() tea.Cmd {
	return tea.Tick(30*time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

// Sources are the data feeds behind the dashboard.
type Sources struct {
	Workflows   *fetch.Resource[model.ListResponse[model.Workflow]]
	Agents      *fetch.Resource[model.ListResponse[model.Agent]]
	Tasks       *fetch.Resource[model.ListResponse[model.Task]]
	Suggestions *fetch.Resource[model.ListResponse[model.Suggestion]]
	Health      *fetch.Resource[model.Health]
	Live        *live.Channel

	channels []string
}

// newSources wires resources and the live channel from cfg. Their change
// notifications are delivered through r.
func newSources(cfg *config.Config, r *relay) *Sources {
	client := fetch.NewClient(cfg.APIBase(), cfg.API.Timeout)
	return &Sources{
		channels: cfg.Live.Channels,
		Workflows: fetch.NewResource(client, func(s fetch.State[model.ListResponse[model.Workflow]]) {
			r.forward(workflowsMsg(s))
		}),
		Agents: fetch.NewResource(client, func(s fetch.State[model.ListResponse[model.Agent]]) {
			r.forward(agentsMsg(s))
		}),
		Tasks: fetch.NewResource(client, func(s fetch.State[model.ListResponse[model.Task]]) {
			r.forward(tasksMsg(s))
		}),
		Suggestions: fetch.NewResource(client, func(s fetch.State[model.ListResponse[model.Suggestion]]) {
			r.forward(suggestionsMsg(s))
		}),
		Health: fetch.NewResource(client, func(s fetch.State[model.Health]) {
			r.forward(healthMsg(s))
		}),
		Live: live.New(live.Options{
			URL: cfg.WSEndpoint(),
			Reconnect: live.ReconnectPolicy{
				MaxAttempts:     cfg.Live.Reconnect.MaxAttempts,
				InitialInterval: cfg.Live.Reconnect.InitialInterval,
				MaxInterval:     cfg.Live.Reconnect.MaxInterval,
			},
			OnChange: func(s live.Snapshot) {
				r.forward(liveMsg(s))
			},
		}),
	}
}

func (s *Sources) activate() {
	s.Workflows.Activate(workflowsPath, fetch.Options{})
	s.Agents.Activate(agentsPath, fetch.Options{})
	s.Tasks.Activate(tasksPath, fetch.Options{})
	s.Suggestions.Activate(suggestionsPath, fetch.Options{})
	s.Health.Activate(healthPath, fetch.Options{})
	s.Live.Activate(s.channels)
}

func (s *Sources) refetch() {
	s.Workflows.Refetch()
	s.Agents.Refetch()
	s.Tasks.Refetch()
	s.Suggestions.Refetch()
	s.Health.Refetch()
}

func (s *Sources) close() {
	s.Live.Close()
	s.Workflows.Close()
	s.Agents.Close()
	s.Tasks.Close()
	s.Suggestions.Close()
	s.Health.Close()
}

// resourceStatus is the loading/error view of one fetch resource.
type resourceStatus struct {
	loading bool
	err     error
}

// Model is the main TUI model.
type Model struct {
	src     *Sources
	store   *dashboard.Store
	panel   panel
	cursor  int
	status  map[string]resourceStatus
	health  *model.Health
	live    live.Snapshot
	lastEnv *model.Envelope
	now     time.Time

	spinner  spinner.Model
	bar      progress.Model
	help     help.Model
	showHelp bool
	width    int
	height   int
}

// NewModel creates the dashboard model. src may be nil, in which case the
// model only reacts to the messages it is sent.
func NewModel(src *Sources) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	status := make(map[string]resourceStatus)
	for _, name := range []string{"workflows", "agents", "tasks", "suggestions", "health"} {
		status[name] = resourceStatus{loading: true}
	}

	return Model{
		src:     src,
		store:   dashboard.NewStore(),
		status:  status,
		live:    live.Snapshot{Reason: live.ReasonNone},
		now:     time.Now(),
		spinner: sp,
		bar: progress.New(
			progress.WithSolidFill(string(primaryColor)),
			progress.WithoutPercentage(),
			progress.WithWidth(24),
		),
		help: help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, clockTick()}
	if m.src != nil {
		src := m.src
		cmds = append(cmds, func() tea.Msg {
			src.activate()
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clockTickMsg:
		m.now = time.Time(msg)
		return m, clockTick()

	case workflowsMsg:
		m.track("workflows", msg.IsLoading, msg.Err)
		if msg.Data != nil {
			m.store.LoadWorkflows(msg.Data.Items)
			m.clampCursor()
		}
	case agentsMsg:
		m.track("agents", msg.IsLoading, msg.Err)
		if msg.Data != nil {
			m.store.LoadAgents(msg.Data.Items)
		}
	case tasksMsg:
		m.track("tasks", msg.IsLoading, msg.Err)
		if msg.Data != nil {
			m.store.LoadTasks(msg.Data.Items)
		}
	case suggestionsMsg:
		m.track("suggestions", msg.IsLoading, msg.Err)
		if msg.Data != nil {
			m.store.LoadSuggestions(msg.Data.Items)
		}
	case healthMsg:
		m.track("health", msg.IsLoading, msg.Err)
		if msg.Data != nil {
			m.health = msg.Data
		}

	case liveMsg:
		m.live = live.Snapshot(msg)
		// Snapshots repeat the last message on every connectivity change.
		if env := msg.LastMessage; env != nil && env != m.lastEnv {
			m.lastEnv = env
			m.store.Apply(env)
			m.clampCursor()
		}
	}
	return m, nil
}

func (m *Model) track(name string, loading bool, err error) {
	m.status[name] = resourceStatus{loading: loading, err: err}
}

func (m *Model) clampCursor() {
	n := len(m.store.Workflows())
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Tab):
		m.panel = (m.panel + 1) % panelCount
	case key.Matches(msg, keys.ShiftTab):
		m.panel = (m.panel + panelCount - 1) % panelCount
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.store.Workflows())-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Refresh):
		if m.src != nil {
			src := m.src
			return m, func() tea.Msg {
				src.refetch()
				return nil
			}
		}
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.panel {
	case panelOverview:
		b.WriteString(m.renderOverview())
	case panelWorkflows:
		b.WriteString(m.renderWorkflows())
	case panelAgents:
		b.WriteString(m.renderAgents())
	case panelSuggestions:
		b.WriteString(m.renderSuggestions())
	}

	if errs := m.renderErrors(); errs != "" {
		b.WriteString("\n\n")
		b.WriteString(errs)
	}
	b.WriteString(helpStyle.Render(m.help.View(keys)))
	return appStyle.Render(b.String())
}

func (m Model) renderHeader() string {
	var tabs []string
	for i, name := range panelNames {
		if panel(i) == m.panel {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	badge := statusErrorStyle.Render("● disconnected")
	if m.live.Connected {
		badge = statusOkStyle.Render("● live")
	}
	if m.loading() {
		badge = m.spinner.View() + " " + badge
	}

	return lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("flowdash"),
		"  ",
		strings.Join(tabs, "  "),
		"   ",
		badge,
	)
}

func (m Model) loading() bool {
	for _, st := range m.status {
		if st.loading {
			return true
		}
	}
	return false
}

func (m Model) renderErrors() string {
	var lines []string
	for _, name := range []string{"workflows", "agents", "tasks", "suggestions", "health"} {
		if err := m.status[name].err; err != nil {
			lines = append(lines, statusErrorStyle.Render(fmt.Sprintf("✗ %s: %v", name, err)))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	lines = append(lines, hintStyle.Render("press r to retry"))
	return strings.Join(lines, "\n")
}
