package model

import (
	"fmt"
	"time"
)

// WorkflowStatus represents the state of a workflow.
type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "pending"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
	WorkflowPaused    WorkflowStatus = "paused"
)

// TaskStatus represents the state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskSkipped    TaskStatus = "skipped"
)

// AgentStatus represents the reachability of an agent.
type AgentStatus string

const (
	AgentOnline  AgentStatus = "online"
	AgentOffline AgentStatus = "offline"
	AgentBusy    AgentStatus = "busy"
	AgentIdle    AgentStatus = "idle"
)

// SuggestionStatus represents the review state of a suggestion.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Priority represents the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Workflow is a backend-owned group of tasks executed by agents.
type Workflow struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Status         WorkflowStatus `json:"status"`
	Progress       int            `json:"progress"` // 0-100
	AgentIDs       []string       `json:"agentIds"`
	TaskCount      int            `json:"taskCount"`
	CompletedTasks int            `json:"completedTasks"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Agent is a worker registered with the backend.
type Agent struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Status        AgentStatus `json:"status"`
	Capabilities  []string    `json:"capabilities"`
	SuccessRate   float64     `json:"successRate"` // 0-1
	TotalTasks    int         `json:"totalTasks"`
	FailedTasks   int         `json:"failedTasks"`
	CurrentTaskID string      `json:"currentTaskId,omitempty"`
	LastSeen      time.Time   `json:"lastSeen"`
}

// Task is a unit of work inside a workflow.
type Task struct {
	ID              string     `json:"id"`
	WorkflowID      string     `json:"workflowId"`
	AgentID         string     `json:"agentId,omitempty"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Status          TaskStatus `json:"status"`
	Priority        Priority   `json:"priority"`
	Progress        *int       `json:"progress,omitempty"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	DurationSeconds *float64   `json:"durationSeconds,omitempty"`
}

// Suggestion is an agent-proposed action awaiting human review.
type Suggestion struct {
	ID         string           `json:"id"`
	TaskID     string           `json:"taskId"`
	AgentID    string           `json:"agentId"`
	Action     string           `json:"action"`
	Reasoning  string           `json:"reasoning"`
	Status     SuggestionStatus `json:"status"`
	Confidence float64          `json:"confidence"` // 0-1
	CreatedAt  time.Time        `json:"createdAt"`
	ApprovedAt *time.Time       `json:"approvedAt,omitempty"`
	ApprovedBy string           `json:"approvedBy,omitempty"`
}

// Comment is a note attached to a task by a human or an agent.
type Comment struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"taskId"`
	AuthorID   string    `json:"authorId"`
	AuthorType string    `json:"authorType"` // "human" or "agent"
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListResponse is the paginated envelope returned by collection endpoints.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// Health is the payload of the health endpoint.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Validate reports the first violated workflow invariant.
func (w *Workflow) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("workflow: id is required")
	}
	if w.Progress < 0 || w.Progress > 100 {
		return fmt.Errorf("workflow %s: progress %d out of range [0,100]", w.ID, w.Progress)
	}
	if w.CompletedTasks > w.TaskCount {
		return fmt.Errorf("workflow %s: completedTasks %d exceeds taskCount %d", w.ID, w.CompletedTasks, w.TaskCount)
	}
	return nil
}

// Validate reports the first violated agent invariant.
func (a *Agent) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("agent: id is required")
	}
	if a.SuccessRate < 0 || a.SuccessRate > 1 {
		return fmt.Errorf("agent %s: successRate %v out of range [0,1]", a.ID, a.SuccessRate)
	}
	if a.FailedTasks > a.TotalTasks {
		return fmt.Errorf("agent %s: failedTasks %d exceeds totalTasks %d", a.ID, a.FailedTasks, a.TotalTasks)
	}
	return nil
}

// Validate reports the first violated task invariant.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task: id is required")
	}
	if t.Progress != nil && (*t.Progress < 0 || *t.Progress > 100) {
		return fmt.Errorf("task %s: progress %d out of range [0,100]", t.ID, *t.Progress)
	}
	if t.StartedAt != nil && t.Status == TaskPending {
		return fmt.Errorf("task %s: started but still pending", t.ID)
	}
	if t.CompletedAt != nil && !t.Status.Terminal() {
		return fmt.Errorf("task %s: completedAt set with status %s", t.ID, t.Status)
	}
	return nil
}

// Validate reports the first violated suggestion invariant.
func (s *Suggestion) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("suggestion: id is required")
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("suggestion %s: confidence %v out of range [0,1]", s.ID, s.Confidence)
	}
	return nil
}

// Terminal reports whether the task can no longer change state.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskSkipped
}

// Available reports whether the agent is connected to the backend.
func (s AgentStatus) Available() bool {
	return s == AgentOnline || s == AgentBusy || s == AgentIdle
}
