package commands

import (
	"context"
	"os/signal"

	"github.com/sirupsen/logrus"

	"flowdash/internal/config"
)

// ConfigFile is the --config flag value; empty means the search path.
var ConfigFile string

// LoadConfig loads and validates configuration and applies its logging
// section.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.SetupLogging(cfg); err != nil {
		return nil, err
	}
	if f := cfg.File(); f != "" {
		logrus.WithField("file", f).Debug("Loaded config file")
	}
	return cfg, nil
}

// signalContext is cancelled on the first shutdown signal.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), shutdownSignals()...)
}

// mustConfig loads configuration or exits with an error.
func mustConfig() *config.Config {
	cfg, err := LoadConfig()
	if err != nil {
		exitOnError(err)
	}
	return cfg
}
