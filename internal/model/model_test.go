package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    MessageType
	}{
		{"agent status", `{"type":"agent_status","data":{"agentId":"agent-1","status":"busy","timestamp":"T"}}`, false, MsgAgentStatus},
		{"unknown type passes", `{"type":"heartbeat","data":null}`, false, MessageType("heartbeat")},
		{"leading whitespace", "  \n{\"type\":\"task_update\",\"data\":{\"id\":\"t1\"}}", false, MsgTaskUpdate},
		{"not json", `not-json`, true, ""},
		{"json null", `null`, true, ""},
		{"json array", `[1,2]`, true, ""},
		{"missing type", `{"data":{}}`, true, ""},
		{"truncated", `{"type":"agent_status"`, true, ""},
		{"empty", ``, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, env)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.Type)
		})
	}
}

func TestEnvelopePayload(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"workflow_update","data":{"id":"wf-1","progress":70,"status":"running"},"timestamp":"2026-02-09T19:20:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "2026-02-09T19:20:00Z", env.Timestamp)

	p, err := env.Payload()
	require.NoError(t, err)
	patch, ok := p.(*WorkflowPatch)
	require.True(t, ok, "payload type %T", p)
	assert.Equal(t, "wf-1", patch.ID)
	require.NotNil(t, patch.Progress)
	assert.Equal(t, 70, *patch.Progress)
	assert.Nil(t, patch.Name)
	assert.Equal(t, "wf-1", env.EntityID())

	agent := &Envelope{Type: MsgAgentStatus, Data: json.RawMessage(`{"agentId":"agent-1","status":"busy","timestamp":"T"}`)}
	assert.Equal(t, "agent-1", agent.EntityID())

	sugg := &Envelope{Type: MsgSuggestionApproved, Data: json.RawMessage(`{"id":"sugg-1","status":"approved","confidence":0.9}`)}
	p, err = sugg.Payload()
	require.NoError(t, err)
	assert.Equal(t, SuggestionApproved, p.(*Suggestion).Status)

	unknown := &Envelope{Type: "heartbeat"}
	p, err = unknown.Payload()
	assert.NoError(t, err)
	assert.Nil(t, p)
	assert.Empty(t, unknown.EntityID())

	bad := &Envelope{Type: MsgTaskUpdate, Data: json.RawMessage(`"oops"`)}
	_, err = bad.Payload()
	assert.Error(t, err)
}

func TestNewEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(MsgAgentStatus, AgentStatusEvent{AgentID: "a1", Status: AgentBusy, Timestamp: "T"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.Timestamp)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	parsed, err := ParseEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, MsgAgentStatus, parsed.Type)
	assert.JSONEq(t, `{"agentId":"a1","status":"busy","timestamp":"T"}`, string(parsed.Data))
}

func TestWorkflowPatchApply(t *testing.T) {
	wf := Workflow{ID: "wf-1", Name: "Support", Status: WorkflowPending, Progress: 10, TaskCount: 4}
	status := WorkflowRunning
	progress := 55
	done := 2
	patch := WorkflowPatch{ID: "wf-1", Status: &status, Progress: &progress, CompletedTasks: &done}

	patch.Apply(&wf)

	assert.Equal(t, "Support", wf.Name)
	assert.Equal(t, WorkflowRunning, wf.Status)
	assert.Equal(t, 55, wf.Progress)
	assert.Equal(t, 2, wf.CompletedTasks)
	assert.Equal(t, 4, wf.TaskCount)
	assert.NoError(t, wf.Validate())
}

func TestTaskPatchApplyCopiesPointers(t *testing.T) {
	task := Task{ID: "t1", Status: TaskPending}
	status := TaskInProgress
	started := time.Date(2026, 2, 9, 19, 16, 0, 0, time.UTC)
	progress := 40
	patch := TaskPatch{ID: "t1", Status: &status, StartedAt: &started, Progress: &progress}

	patch.Apply(&task)
	progress = 99

	require.NotNil(t, task.Progress)
	assert.Equal(t, 40, *task.Progress)
	assert.Equal(t, started, *task.StartedAt)
	assert.NoError(t, task.Validate())
}

func TestValidate(t *testing.T) {
	now := time.Now()

	assert.Error(t, (&Workflow{ID: "w", TaskCount: 1, CompletedTasks: 2}).Validate())
	assert.Error(t, (&Workflow{ID: "w", Progress: 101}).Validate())
	assert.Error(t, (&Workflow{}).Validate())

	assert.Error(t, (&Agent{ID: "a", SuccessRate: 1.5}).Validate())
	assert.Error(t, (&Agent{ID: "a", TotalTasks: 1, FailedTasks: 3}).Validate())
	assert.NoError(t, (&Agent{ID: "a", SuccessRate: 0.98, TotalTasks: 10, FailedTasks: 1}).Validate())

	assert.Error(t, (&Task{ID: "t", Status: TaskPending, StartedAt: &now}).Validate())
	assert.Error(t, (&Task{ID: "t", Status: TaskInProgress, CompletedAt: &now}).Validate())
	assert.NoError(t, (&Task{ID: "t", Status: TaskSkipped, CompletedAt: &now}).Validate())

	assert.Error(t, (&Suggestion{ID: "s", Confidence: -0.1}).Validate())
	assert.NoError(t, (&Suggestion{ID: "s", Confidence: 0.95}).Validate())
}

func TestListResponseDecode(t *testing.T) {
	var list ListResponse[Workflow]
	err := json.Unmarshal([]byte(`{"items":[{"id":"wf-1","name":"A","status":"running","progress":65,"agentIds":[],"taskCount":0,"completedTasks":0,"createdAt":"2026-02-09T09:00:00Z","updatedAt":"2026-02-09T19:20:00Z"}],"total":1,"skip":0,"limit":20}`), &list)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, WorkflowRunning, list.Items[0].Status)
	assert.Equal(t, 20, list.Limit)
}
