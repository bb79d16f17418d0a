package devserver

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"

	"flowdash/internal/model"
)

// StartSimulation advances fixture state every interval and pushes the
// resulting workflow_update and agent_status events. A non-positive
// interval leaves the data static.
func (s *Server) StartSimulation(interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler != nil {
		return errors.New("simulation already running")
	}

	sched := gocron.NewScheduler(time.UTC)
	sched.SingletonModeAll()
	if _, err := sched.Every(interval).WaitForSchedule().Do(s.Step); err != nil {
		return errors.Wrap(err, "schedule simulation")
	}
	sched.StartAsync()
	s.scheduler = sched

	s.log.WithField("interval", interval).Info("Simulation started")
	return nil
}

// StopSimulation stops a running simulation.
func (s *Server) StopSimulation() {
	s.mu.Lock()
	sched := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
}

// Step advances the first running workflow by five points and toggles one
// agent between online and busy.
func (s *Server) Step() {
	now := time.Now().UTC()

	s.mu.Lock()
	var wfPatch *model.WorkflowPatch
	for i := range s.workflows {
		w := &s.workflows[i]
		if w.Status != model.WorkflowRunning {
			continue
		}
		w.Progress = min(100, w.Progress+5)
		if w.Progress == 100 {
			w.Status = model.WorkflowCompleted
			w.CompletedTasks = w.TaskCount
		}
		w.UpdatedAt = now

		status, progress, done := w.Status, w.Progress, w.CompletedTasks
		updated := now
		wfPatch = &model.WorkflowPatch{
			ID:             w.ID,
			Status:         &status,
			Progress:       &progress,
			CompletedTasks: &done,
			UpdatedAt:      &updated,
		}
		break
	}

	var agentEvent *model.AgentStatusEvent
	if n := len(s.agents); n > 0 {
		a := &s.agents[s.tick%n]
		s.tick++
		switch a.Status {
		case model.AgentOnline:
			a.Status = model.AgentBusy
		case model.AgentBusy:
			a.Status = model.AgentOnline
			a.CurrentTaskID = ""
		}
		if a.Status != model.AgentOffline {
			a.LastSeen = now
			agentEvent = &model.AgentStatusEvent{
				AgentID:     a.ID,
				Status:      a.Status,
				CurrentTask: a.CurrentTaskID,
				Timestamp:   now.Format(time.RFC3339),
			}
		}
	}
	s.mu.Unlock()

	if wfPatch != nil {
		s.publish(model.MsgWorkflowUpdate, wfPatch)
	}
	if agentEvent != nil {
		s.publish(model.MsgAgentStatus, agentEvent)
	}
}
