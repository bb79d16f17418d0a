package commands

import (
	"context"

	"github.com/sirupsen/logrus"

	"flowdash/internal/config"
	"flowdash/internal/devserver"
	"flowdash/internal/ui"
)

// RunDevServer serves the fixture backend until ctx is done.
func RunDevServer(ctx context.Context, cfg *config.Config) error {
	srv := devserver.New(Version)
	if err := srv.StartSimulation(cfg.DevServer.SimulateInterval); err != nil {
		return err
	}
	defer srv.StopSimulation()

	ui.ShowInfo("Fixture backend listening on %s", cfg.DevServer.Addr)
	if cfg.DevServer.SimulateInterval > 0 {
		ui.ShowInfo("Simulating updates every %s", cfg.DevServer.SimulateInterval)
	}

	err := srv.Run(ctx, cfg.DevServer.Addr)
	logrus.WithField("component", "devserver").Info("Fixture backend stopped")
	return err
}
