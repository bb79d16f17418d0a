package dashboard

import (
	"time"

	"flowdash/internal/model"
)

// Summary holds the headline metrics of the dashboard.
type Summary struct {
	ActiveWorkflows    int     `json:"activeWorkflows"`
	TotalWorkflows     int     `json:"totalWorkflows"`
	OnlineAgents       int     `json:"onlineAgents"`
	TotalAgents        int     `json:"totalAgents"`
	PendingTasks       int     `json:"pendingTasks"`
	CompletedToday     int     `json:"completedToday"`
	PendingSuggestions int     `json:"pendingSuggestions"`
	AvgSuccessRate     float64 `json:"avgSuccessRate"`
}

// Summary computes metrics as of now. "Today" is now's calendar day in
// now's location.
func (s *Store) Summary(now time.Time) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum Summary
	sum.TotalWorkflows = len(s.workflows)
	for _, w := range s.workflows {
		if w.Status == model.WorkflowRunning {
			sum.ActiveWorkflows++
		}
	}

	sum.TotalAgents = len(s.agents)
	var rate float64
	for _, a := range s.agents {
		if a.Status.Available() {
			sum.OnlineAgents++
		}
		rate += a.SuccessRate
	}
	if len(s.agents) > 0 {
		sum.AvgSuccessRate = rate / float64(len(s.agents))
	}

	y, m, d := now.Date()
	for _, t := range s.tasks {
		switch {
		case t.Status == model.TaskPending:
			sum.PendingTasks++
		case t.Status == model.TaskCompleted && t.CompletedAt != nil:
			cy, cm, cd := t.CompletedAt.In(now.Location()).Date()
			if cy == y && cm == m && cd == d {
				sum.CompletedToday++
			}
		}
	}

	for _, sg := range s.suggestions {
		if sg.Status == model.SuggestionPending {
			sum.PendingSuggestions++
		}
	}
	return sum
}
