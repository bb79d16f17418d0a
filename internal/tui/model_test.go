package tui

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowdash/internal/fetch"
	"flowdash/internal/live"
	"flowdash/internal/model"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func runeKey(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func loaded(t *testing.T) Model {
	t.Helper()
	m := NewModel(nil)
	m.now = time.Date(2026, 2, 9, 20, 0, 0, 0, time.UTC)

	m, _ = update(t, m, workflowsMsg{Data: &model.ListResponse[model.Workflow]{Items: []model.Workflow{
		{ID: "wf-001", Name: "Customer Support Automation", Status: model.WorkflowRunning, Progress: 65, TaskCount: 3},
		{ID: "wf-002", Name: "Data Migration Pipeline", Status: model.WorkflowCompleted, Progress: 100, TaskCount: 1, CompletedTasks: 1},
	}}})
	m, _ = update(t, m, agentsMsg{Data: &model.ListResponse[model.Agent]{Items: []model.Agent{
		{ID: "agent-001-ta", Name: "TicketAnalyzer", Status: model.AgentOnline, SuccessRate: 0.98, TotalTasks: 1247},
		{ID: "agent-004-dc", Name: "DataConverter", Status: model.AgentOffline, SuccessRate: 0.94, TotalTasks: 543},
	}}})
	m, _ = update(t, m, tasksMsg{Data: &model.ListResponse[model.Task]{Items: []model.Task{
		{ID: "task-001", WorkflowID: "wf-001", Name: "Analyze Support Ticket", Status: model.TaskInProgress},
		{ID: "task-002", WorkflowID: "wf-001", Name: "Draft Response Email", Status: model.TaskPending},
	}}})
	m, _ = update(t, m, suggestionsMsg{Data: &model.ListResponse[model.Suggestion]{Items: []model.Suggestion{
		{ID: "sugg-001", TaskID: "task-002", AgentID: "agent-001-ta", Action: "send_response_email", Status: model.SuggestionPending, Confidence: 0.95},
	}}})
	m, _ = update(t, m, healthMsg{Data: &model.Health{Status: "healthy", Version: "1.0.0"}})
	return m
}

func TestNewModelStartsLoading(t *testing.T) {
	m := NewModel(nil)
	assert.True(t, m.loading())
	assert.Contains(t, m.View(), "disconnected")
	assert.NotNil(t, m.Init())
}

func TestOverview(t *testing.T) {
	m := loaded(t)
	assert.False(t, m.loading())

	view := m.View()
	assert.Contains(t, view, "1 / 2")
	assert.Contains(t, view, "96.0%")
	assert.Contains(t, view, "healthy")
	assert.Contains(t, view, "1 awaiting review")
}

func TestPanels(t *testing.T) {
	m := loaded(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, panelWorkflows, m.panel)
	view := m.View()
	assert.Contains(t, view, "Customer Support Automation")
	assert.Contains(t, view, "Draft Response Email")

	m, _ = update(t, m, runeKey("j"))
	assert.Equal(t, 1, m.cursor)
	m, _ = update(t, m, runeKey("j"))
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.View(), "no tasks")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, panelAgents, m.panel)
	assert.Contains(t, m.View(), "TicketAnalyzer")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, panelSuggestions, m.panel)
	view = m.View()
	assert.Contains(t, view, "send_response_email")
	assert.Contains(t, view, "TicketAnalyzer")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, panelOverview, m.panel)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, panelSuggestions, m.panel)
}

func TestLiveSnapshots(t *testing.T) {
	m := loaded(t)

	env := &model.Envelope{Type: model.MsgWorkflowUpdate, Data: json.RawMessage(`{"id":"wf-001","progress":90}`)}
	m, _ = update(t, m, liveMsg(live.Snapshot{Connected: true, LastMessage: env}))
	assert.Contains(t, m.View(), "● live")

	wf, ok := m.store.Workflow("wf-001")
	require.True(t, ok)
	assert.Equal(t, 90, wf.Progress)

	// A later snapshot repeating the same message is not re-applied.
	m.store.LoadWorkflows([]model.Workflow{{ID: "wf-001", Progress: 10}})
	m, _ = update(t, m, liveMsg(live.Snapshot{Connected: false, LastMessage: env, Reason: live.ReasonRemote}))
	wf, _ = m.store.Workflow("wf-001")
	assert.Equal(t, 10, wf.Progress)
	assert.Contains(t, m.View(), "disconnected")
}

func TestResourceErrors(t *testing.T) {
	m := loaded(t)
	m, _ = update(t, m, agentsMsg{Err: &fetch.HTTPError{StatusCode: 500, Path: agentsPath}})

	view := m.View()
	assert.Contains(t, view, "agents: HTTP 500")
	assert.Contains(t, view, "press r to retry")

	// stale data stays visible
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "TicketAnalyzer")
}

func TestKeys(t *testing.T) {
	m := loaded(t)

	m, cmd := update(t, m, runeKey("r"))
	assert.Nil(t, cmd)

	m, _ = update(t, m, runeKey("?"))
	assert.True(t, m.help.ShowAll)

	_, cmd = update(t, m, runeKey("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRelayDeliversInOrder(t *testing.T) {
	r := newRelay()
	defer r.stop()
	r.forward(healthMsg{}) // held until a program is attached

	var mu sync.Mutex
	var got []tea.Msg
	r.set(func(msg tea.Msg) {
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
	})
	r.forward(healthMsg{IsLoading: true})
	r.forward(liveMsg{Connected: true})

	require.Eventually(t, r.idle, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []tea.Msg{healthMsg{}, healthMsg{IsLoading: true}, liveMsg{Connected: true}}, got)
}

func TestRelayForwardDoesNotWaitForDelivery(t *testing.T) {
	r := newRelay()
	defer r.stop()

	release := make(chan struct{})
	defer close(release)
	r.set(func(tea.Msg) { <-release })

	forwarded := make(chan struct{})
	go func() {
		r.forward(healthMsg{})
		r.forward(healthMsg{IsLoading: true})
		close(forwarded)
	}()

	select {
	case <-forwarded:
	case <-time.After(time.Second):
		t.Fatal("forward blocked on a busy receiver")
	}
}
