package commands

import (
	"gopkg.in/yaml.v3"

	"flowdash/internal/config"
	"flowdash/internal/output"
)

// RunConfigShow prints the effective configuration as YAML, or JSON with --json.
func RunConfigShow(cfg *config.Config) error {
	var encErr error
	output.Print(cfg, func() {
		if f := cfg.File(); f != "" {
			output.Printf("# %s\n", f)
		}
		enc := yaml.NewEncoder(output.Stdout)
		enc.SetIndent(2)
		encErr = enc.Encode(cfg)
		if encErr == nil {
			encErr = enc.Close()
		}
	})
	return encErr
}
