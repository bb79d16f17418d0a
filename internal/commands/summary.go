package commands

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"flowdash/internal/config"
	"flowdash/internal/dashboard"
	"flowdash/internal/fetch"
	"flowdash/internal/model"
	"flowdash/internal/output"
	"flowdash/internal/ui"
)

const summaryPageSize = "?limit=200"

// SummaryReport is the JSON shape of `flowdash summary`.
type SummaryReport struct {
	dashboard.Summary
	Health *model.Health `json:"health,omitempty"`
}

// fetchStore loads every collection into a fresh store.
func fetchStore(ctx context.Context, client *fetch.Client) (*dashboard.Store, error) {
	store := dashboard.NewStore()

	workflows, err := fetch.Get[model.ListResponse[model.Workflow]](ctx, client, "/api/workflows"+summaryPageSize)
	if err != nil {
		return nil, errors.Wrap(err, "workflows")
	}
	store.LoadWorkflows(workflows.Items)

	agents, err := fetch.Get[model.ListResponse[model.Agent]](ctx, client, "/api/agents"+summaryPageSize)
	if err != nil {
		return nil, errors.Wrap(err, "agents")
	}
	store.LoadAgents(agents.Items)

	tasks, err := fetch.Get[model.ListResponse[model.Task]](ctx, client, "/api/tasks"+summaryPageSize)
	if err != nil {
		return nil, errors.Wrap(err, "tasks")
	}
	store.LoadTasks(tasks.Items)

	suggestions, err := fetch.Get[model.ListResponse[model.Suggestion]](ctx, client, "/api/suggestions"+summaryPageSize)
	if err != nil {
		return nil, errors.Wrap(err, "suggestions")
	}
	store.LoadSuggestions(suggestions.Items)

	return store, nil
}

// RunSummary fetches all collections and prints the dashboard metrics.
func RunSummary(ctx context.Context, cfg *config.Config) error {
	client := fetch.NewClient(cfg.APIBase(), cfg.API.Timeout)

	store, err := fetchStore(ctx, client)
	if err != nil {
		return err
	}
	report := SummaryReport{Summary: store.Summary(time.Now())}

	health, err := fetch.Get[model.Health](ctx, client, "/api/health")
	if err != nil {
		logrus.WithError(err).Warn("Health check failed")
	} else {
		report.Health = health
	}

	output.Print(report, func() {
		ui.ShowHeader("flowdash summary")
		if report.Health != nil {
			ui.ShowSuccess("API %s (version %s)", report.Health.Status, report.Health.Version)
		} else {
			ui.ShowWarning("API health unavailable")
		}
		s := report.Summary
		ui.ShowField("Active workflows", fmtRatio(s.ActiveWorkflows, s.TotalWorkflows))
		ui.ShowField("Online agents", fmtRatio(s.OnlineAgents, s.TotalAgents))
		ui.ShowField("Pending tasks", s.PendingTasks)
		ui.ShowField("Completed today", s.CompletedToday)
		ui.ShowField("Pending suggestions", s.PendingSuggestions)
		ui.ShowField("Avg success rate", fmtPercent(s.AvgSuccessRate))
	})
	return nil
}
