package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShow(t *testing.T) {
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })

	ShowHeader("Summary")
	ShowSuccess("connected to %s", "api")
	ShowError("fetch failed", errors.New("HTTP 500"))
	ShowError("no data", nil)
	ShowWarning("%d stale", 2)
	ShowInfo("hello")
	ShowField("Active workflows", 3)

	out := buf.String()
	assert.Contains(t, out, " Summary\n")
	assert.Contains(t, out, "connected to api")
	assert.Contains(t, out, "fetch failed: HTTP 500")
	assert.Contains(t, out, "no data\n")
	assert.Contains(t, out, "2 stale")
	assert.Contains(t, out, "Active workflows:")
	assert.Contains(t, out, " 3\n")
}
