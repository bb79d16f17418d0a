// Package dashboard reconciles fetched collections and pushed envelopes into
// the per-id projections that views render.
package dashboard

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"flowdash/internal/model"
)

// Store holds transient projections of backend entities. A newer update for
// an id supersedes the older one. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	workflows   map[string]model.Workflow
	agents      map[string]model.Agent
	tasks       map[string]model.Task
	suggestions map[string]model.Suggestion
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		workflows:   make(map[string]model.Workflow),
		agents:      make(map[string]model.Agent),
		tasks:       make(map[string]model.Task),
		suggestions: make(map[string]model.Suggestion),
	}
}

// LoadWorkflows replaces the workflow collection.
func (s *Store) LoadWorkflows(items []model.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows = make(map[string]model.Workflow, len(items))
	for _, w := range items {
		s.workflows[w.ID] = w
	}
}

// LoadAgents replaces the agent collection.
func (s *Store) LoadAgents(items []model.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = make(map[string]model.Agent, len(items))
	for _, a := range items {
		s.agents[a.ID] = a
	}
}

// LoadTasks replaces the task collection.
func (s *Store) LoadTasks(items []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]model.Task, len(items))
	for _, t := range items {
		s.tasks[t.ID] = t
	}
}

// LoadSuggestions replaces the suggestion collection.
func (s *Store) LoadSuggestions(items []model.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = make(map[string]model.Suggestion, len(items))
	for _, sg := range items {
		s.suggestions[sg.ID] = sg
	}
}

// Apply merges one envelope. It reports whether a projection changed;
// unknown envelope types are ignored.
func (s *Store) Apply(env *model.Envelope) (bool, error) {
	if env == nil {
		return false, nil
	}
	payload, err := env.Payload()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch p := payload.(type) {
	case nil:
		return false, nil
	case *model.WorkflowPatch:
		if p.ID == "" {
			return false, errors.New("workflow_update without id")
		}
		w := s.workflows[p.ID]
		p.Apply(&w)
		s.workflows[p.ID] = w
	case *model.TaskPatch:
		if p.ID == "" {
			return false, errors.New("task_update without id")
		}
		t := s.tasks[p.ID]
		p.Apply(&t)
		s.tasks[p.ID] = t
	case *model.AgentStatusEvent:
		if p.AgentID == "" {
			return false, errors.New("agent_status without agentId")
		}
		a := s.agents[p.AgentID]
		a.ID = p.AgentID
		a.Status = p.Status
		a.CurrentTaskID = p.CurrentTask
		if ts, err := time.Parse(time.RFC3339, p.Timestamp); err == nil {
			a.LastSeen = ts
		}
		s.agents[p.AgentID] = a
	case *model.Suggestion:
		if p.ID == "" {
			return false, errors.Errorf("%s without id", env.Type)
		}
		s.suggestions[p.ID] = mergeSuggestion(s.suggestions[p.ID], *p, env.Type)
	}
	return true, nil
}

// mergeSuggestion overlays the non-empty fields of update onto cur. The
// approve/reject events carry only a partial record.
func mergeSuggestion(cur, update model.Suggestion, t model.MessageType) model.Suggestion {
	cur.ID = update.ID
	if update.TaskID != "" {
		cur.TaskID = update.TaskID
	}
	if update.AgentID != "" {
		cur.AgentID = update.AgentID
	}
	if update.Action != "" {
		cur.Action = update.Action
	}
	if update.Reasoning != "" {
		cur.Reasoning = update.Reasoning
	}
	if update.Status != "" {
		cur.Status = update.Status
	}
	if update.Confidence != 0 {
		cur.Confidence = update.Confidence
	}
	if !update.CreatedAt.IsZero() {
		cur.CreatedAt = update.CreatedAt
	}
	if update.ApprovedAt != nil {
		cur.ApprovedAt = update.ApprovedAt
	}
	if update.ApprovedBy != "" {
		cur.ApprovedBy = update.ApprovedBy
	}

	switch t {
	case model.MsgSuggestionApproved:
		cur.Status = model.SuggestionApproved
	case model.MsgSuggestionRejected:
		cur.Status = model.SuggestionRejected
	case model.MsgSuggestionCreated:
		if cur.Status == "" {
			cur.Status = model.SuggestionPending
		}
	}
	return cur
}

// Workflows returns workflows ordered by id.
func (s *Store) Workflows() []model.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Workflow, 0, len(s.workflows))
	for _, w := range s.workflows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Agents returns agents ordered by name, then id.
func (s *Store) Agents() []model.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Tasks returns tasks of one workflow, or all when workflowID is empty,
// ordered by id.
func (s *Store) Tasks(workflowID string) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Task
	for _, t := range s.tasks {
		if workflowID == "" || t.WorkflowID == workflowID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PendingSuggestions returns suggestions awaiting review, oldest first.
func (s *Store) PendingSuggestions() []model.Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Suggestion
	for _, sg := range s.suggestions {
		if sg.Status == model.SuggestionPending {
			out = append(out, sg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Workflow returns one workflow by id.
func (s *Store) Workflow(id string) (model.Workflow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	return w, ok
}

// Agent returns one agent by id.
func (s *Store) Agent(id string) (model.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	return a, ok
}
