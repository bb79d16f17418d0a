package devserver

import (
	"time"

	"flowdash/internal/model"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsPtr(s string) *time.Time {
	t := ts(s)
	return &t
}

func intPtr(v int) *int { return &v }

// seedWorkflows mirrors the sample data the dashboard was designed against.
func seedWorkflows() []model.Workflow {
	return []model.Workflow{
		{
			ID: "wf-001", Name: "Customer Support Automation",
			Description: "Automated ticket analysis and response",
			Status:      model.WorkflowRunning, Progress: 65,
			AgentIDs:  []string{"agent-001-ta", "agent-002-er", "agent-003-em"},
			TaskCount: 3, CompletedTasks: 0,
			CreatedAt: ts("2026-02-09T09:00:00Z"), UpdatedAt: ts("2026-02-09T19:20:00Z"),
		},
		{
			ID: "wf-002", Name: "Data Migration Pipeline",
			Description: "Migrate customer data between systems",
			Status:      model.WorkflowCompleted, Progress: 100,
			AgentIDs:  []string{"agent-004-dc"},
			TaskCount: 1, CompletedTasks: 1,
			CreatedAt: ts("2026-02-08T10:00:00Z"), UpdatedAt: ts("2026-02-09T15:30:00Z"),
		},
		{
			ID: "wf-003", Name: "Quality Control Review",
			Description: "Automated quality checks on content",
			Status:      model.WorkflowRunning, Progress: 30,
			AgentIDs:  []string{"agent-005-qc"},
			TaskCount: 1, CompletedTasks: 0,
			CreatedAt: ts("2026-02-09T18:00:00Z"), UpdatedAt: ts("2026-02-09T19:15:00Z"),
		},
	}
}

func seedAgents() []model.Agent {
	return []model.Agent{
		{ID: "agent-001-ta", Name: "TicketAnalyzer", Status: model.AgentOnline, Capabilities: []string{"classification", "triage"},
			SuccessRate: 0.98, TotalTasks: 1247, FailedTasks: 25, CurrentTaskID: "task-001", LastSeen: ts("2026-02-09T19:20:00Z")},
		{ID: "agent-002-er", Name: "EmailResponder", Status: model.AgentOnline, Capabilities: []string{"drafting", "email"},
			SuccessRate: 0.96, TotalTasks: 856, FailedTasks: 34, LastSeen: ts("2026-02-09T19:19:00Z")},
		{ID: "agent-003-em", Name: "EscalationManager", Status: model.AgentOnline, Capabilities: []string{"escalation"},
			SuccessRate: 0.99, TotalTasks: 1247, FailedTasks: 12, LastSeen: ts("2026-02-09T19:18:00Z")},
		{ID: "agent-004-dc", Name: "DataConverter", Status: model.AgentOffline, Capabilities: []string{"etl", "validation"},
			SuccessRate: 0.94, TotalTasks: 543, FailedTasks: 33, LastSeen: ts("2026-02-09T18:00:00Z")},
		{ID: "agent-005-qc", Name: "QualityChecker", Status: model.AgentBusy, Capabilities: []string{"review"},
			SuccessRate: 0.97, TotalTasks: 892, FailedTasks: 27, CurrentTaskID: "task-200", LastSeen: ts("2026-02-09T19:15:00Z")},
	}
}

func seedTasks() []model.Task {
	return []model.Task{
		{ID: "task-001", Name: "Analyze Support Ticket", WorkflowID: "wf-001", AgentID: "agent-001-ta",
			Status: model.TaskInProgress, Priority: model.PriorityHigh, Progress: intPtr(75),
			CreatedAt: ts("2026-02-09T19:15:00Z"), StartedAt: tsPtr("2026-02-09T19:16:00Z")},
		{ID: "task-002", Name: "Draft Response Email", WorkflowID: "wf-001", AgentID: "agent-002-er",
			Status: model.TaskPending, Priority: model.PriorityHigh, Progress: intPtr(0),
			CreatedAt: ts("2026-02-09T19:16:00Z")},
		{ID: "task-003", Name: "Evaluate Escalation Need", WorkflowID: "wf-001", AgentID: "agent-003-em",
			Status: model.TaskPending, Priority: model.PriorityHigh, Progress: intPtr(0),
			CreatedAt: ts("2026-02-09T19:16:00Z")},
		{ID: "task-100", Name: "Validate Customer Data", WorkflowID: "wf-002", AgentID: "agent-004-dc",
			Status: model.TaskCompleted, Priority: model.PriorityHigh, Progress: intPtr(100),
			CreatedAt: ts("2026-02-08T10:00:00Z"), StartedAt: tsPtr("2026-02-08T10:05:00Z"), CompletedAt: tsPtr("2026-02-08T12:30:00Z")},
		{ID: "task-200", Name: "Quality Check: Articles", WorkflowID: "wf-003", AgentID: "agent-005-qc",
			Status: model.TaskInProgress, Priority: model.PriorityMedium, Progress: intPtr(30),
			CreatedAt: ts("2026-02-09T18:00:00Z"), StartedAt: tsPtr("2026-02-09T18:01:00Z")},
	}
}

func seedSuggestions() []model.Suggestion {
	return []model.Suggestion{
		{ID: "sugg-001", TaskID: "task-002", AgentID: "agent-002-er", Action: "send_response_email",
			Reasoning: "Email response is drafted and ready. High confidence.", Status: model.SuggestionPending,
			Confidence: 0.95, CreatedAt: ts("2026-02-09T19:18:30Z")},
		{ID: "sugg-002", TaskID: "task-003", AgentID: "agent-003-em", Action: "close_ticket_with_solution",
			Reasoning: "No escalation needed. Issue is straightforward.", Status: model.SuggestionPending,
			Confidence: 0.99, CreatedAt: ts("2026-02-09T19:19:00Z")},
		{ID: "sugg-100", TaskID: "task-100", AgentID: "agent-004-dc", Action: "proceed_with_migration",
			Reasoning: "Data validation passed. Ready for next stage.", Status: model.SuggestionApproved,
			Confidence: 0.98, CreatedAt: ts("2026-02-08T12:30:00Z"),
			ApprovedAt: tsPtr("2026-02-08T12:35:00Z"), ApprovedBy: "human-001"},
	}
}
