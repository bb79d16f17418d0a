package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// MessageType tags a pushed envelope.
type MessageType string

const (
	MsgWorkflowUpdate     MessageType = "workflow_update"
	MsgTaskUpdate         MessageType = "task_update"
	MsgAgentStatus        MessageType = "agent_status"
	MsgSuggestionCreated  MessageType = "suggestion_created"
	MsgSuggestionUpdated  MessageType = "suggestion_updated"
	MsgSuggestionApproved MessageType = "suggestion_approved"
	MsgSuggestionRejected MessageType = "suggestion_rejected"
)

// IsSuggestion reports whether t is one of the suggestion_* events.
func (t MessageType) IsSuggestion() bool {
	switch t {
	case MsgSuggestionCreated, MsgSuggestionUpdated, MsgSuggestionApproved, MsgSuggestionRejected:
		return true
	}
	return false
}

// Envelope is a server-pushed message. Data is kept raw so unknown types
// pass through untouched.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// ParseEnvelope decodes one inbound frame. Frames that are not JSON objects
// or carry no type are rejected.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("envelope: frame is not a JSON object")
	}
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, errors.Wrap(err, "envelope: decode frame")
	}
	if env.Type == "" {
		return nil, fmt.Errorf("envelope: missing type")
	}
	return &env, nil
}

// NewEnvelope builds an envelope around payload, stamping the current time.
func NewEnvelope(t MessageType, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "envelope: encode %s payload", t)
	}
	return &Envelope{
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Payload decodes Data according to Type. It returns *WorkflowPatch,
// *TaskPatch, *AgentStatusEvent or *Suggestion; unknown types yield nil.
func (e *Envelope) Payload() (any, error) {
	var target any
	switch {
	case e.Type == MsgWorkflowUpdate:
		target = &WorkflowPatch{}
	case e.Type == MsgTaskUpdate:
		target = &TaskPatch{}
	case e.Type == MsgAgentStatus:
		target = &AgentStatusEvent{}
	case e.Type.IsSuggestion():
		target = &Suggestion{}
	default:
		return nil, nil
	}
	if err := json.Unmarshal(e.Data, target); err != nil {
		return nil, errors.Wrapf(err, "envelope: decode %s payload", e.Type)
	}
	return target, nil
}

// EntityID returns the identifier of the entity the envelope updates, or ""
// when the payload cannot be decoded.
func (e *Envelope) EntityID() string {
	p, err := e.Payload()
	if err != nil || p == nil {
		return ""
	}
	switch v := p.(type) {
	case *WorkflowPatch:
		return v.ID
	case *TaskPatch:
		return v.ID
	case *AgentStatusEvent:
		return v.AgentID
	case *Suggestion:
		return v.ID
	}
	return ""
}

// ControlAction is the verb of a client control frame.
type ControlAction string

const (
	ActionSubscribe   ControlAction = "subscribe"
	ActionUnsubscribe ControlAction = "unsubscribe"
)

// ControlFrame is sent by the client to manage channel interest.
type ControlFrame struct {
	Action  ControlAction `json:"action"`
	Channel string        `json:"channel"`
}

// AgentStatusEvent is the payload of agent_status envelopes.
type AgentStatusEvent struct {
	AgentID     string      `json:"agentId"`
	Status      AgentStatus `json:"status"`
	CurrentTask string      `json:"currentTask,omitempty"`
	Timestamp   string      `json:"timestamp"`
}

// WorkflowPatch is a partial workflow keyed by ID. Nil fields are unchanged.
type WorkflowPatch struct {
	ID             string          `json:"id"`
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Status         *WorkflowStatus `json:"status,omitempty"`
	Progress       *int            `json:"progress,omitempty"`
	AgentIDs       []string        `json:"agentIds,omitempty"`
	TaskCount      *int            `json:"taskCount,omitempty"`
	CompletedTasks *int            `json:"completedTasks,omitempty"`
	CreatedAt      *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time      `json:"updatedAt,omitempty"`
}

// Apply merges the patch into w.
func (p *WorkflowPatch) Apply(w *Workflow) {
	w.ID = p.ID
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Description != nil {
		w.Description = *p.Description
	}
	if p.Status != nil {
		w.Status = *p.Status
	}
	if p.Progress != nil {
		w.Progress = *p.Progress
	}
	if p.AgentIDs != nil {
		w.AgentIDs = append([]string(nil), p.AgentIDs...)
	}
	if p.TaskCount != nil {
		w.TaskCount = *p.TaskCount
	}
	if p.CompletedTasks != nil {
		w.CompletedTasks = *p.CompletedTasks
	}
	if p.CreatedAt != nil {
		w.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		w.UpdatedAt = *p.UpdatedAt
	}
}

// TaskPatch is a partial task keyed by ID. Nil fields are unchanged.
type TaskPatch struct {
	ID              string      `json:"id"`
	WorkflowID      *string     `json:"workflowId,omitempty"`
	AgentID         *string     `json:"agentId,omitempty"`
	Name            *string     `json:"name,omitempty"`
	Description     *string     `json:"description,omitempty"`
	Status          *TaskStatus `json:"status,omitempty"`
	Priority        *Priority   `json:"priority,omitempty"`
	Progress        *int        `json:"progress,omitempty"`
	DueDate         *time.Time  `json:"dueDate,omitempty"`
	StartedAt       *time.Time  `json:"startedAt,omitempty"`
	CompletedAt     *time.Time  `json:"completedAt,omitempty"`
	DurationSeconds *float64    `json:"durationSeconds,omitempty"`
}

// Apply merges the patch into t.
func (p *TaskPatch) Apply(t *Task) {
	t.ID = p.ID
	if p.WorkflowID != nil {
		t.WorkflowID = *p.WorkflowID
	}
	if p.AgentID != nil {
		t.AgentID = *p.AgentID
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Progress != nil {
		v := *p.Progress
		t.Progress = &v
	}
	if p.DueDate != nil {
		v := *p.DueDate
		t.DueDate = &v
	}
	if p.StartedAt != nil {
		v := *p.StartedAt
		t.StartedAt = &v
	}
	if p.CompletedAt != nil {
		v := *p.CompletedAt
		t.CompletedAt = &v
	}
	if p.DurationSeconds != nil {
		v := *p.DurationSeconds
		t.DurationSeconds = &v
	}
}
