package commands

import (
	"context"
	"encoding/json"
	"strings"

	"flowdash/internal/config"
	"flowdash/internal/fetch"
	"flowdash/internal/output"
)

// apiPath resolves a user-supplied path against the /api prefix.
func apiPath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/api/" + p
}

// RunGet performs one fetch cycle for path and prints the payload.
func RunGet(ctx context.Context, cfg *config.Config, path string) error {
	client := fetch.NewClient(cfg.APIBase(), cfg.API.Timeout)
	res := fetch.NewResource[json.RawMessage](client, nil)
	defer res.Close()

	res.Activate(apiPath(path), fetch.Options{})
	done := make(chan struct{})
	go func() {
		res.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	st := res.State()
	if st.Err != nil {
		return st.Err
	}

	var data any
	if err := json.Unmarshal(*st.Data, &data); err != nil {
		return err
	}
	output.Print(data, func() {
		pretty, _ := json.MarshalIndent(data, "", "  ")
		output.Printf("%s\n", pretty)
	})
	return nil
}
