package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/core/internal/dlq"
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
)

// run executes the root command with a throwaway config path.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	full := append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml"), "--no-color"}, args...)
	rootCmd.SetArgs(full)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	expected := map[string]bool{"serve": false, "translate": false, "seed": false, "config": false, "dlq": false}
	for _, c := range rootCmd.Commands() {
		name := strings.Fields(c.Use)[0]
		if _, ok := expected[name]; ok {
			expected[name] = true
		}
	}
	for name, found := range expected {
		assert.True(t, found, "expected command %q to be registered", name)
	}

	var sub []string
	for _, c := range configCmd.Commands() {
		sub = append(sub, strings.Fields(c.Use)[0])
	}
	assert.ElementsMatch(t, []string{"init", "show", "validate"}, sub)
}

func TestTranslate_StdinToJSONLines(t *testing.T) {
	input := `{"type":"identify","userId":"user-1"}
{"type":"track","event":"Order Completed","anonymousId":"anon-1","properties":{"orderId":"A1","products":[{"productId":"p1","category":"games","quantity":2,"price":5}]}}
`
	stdout, _, err := run(t, input, "translate", "-o", "jsonl", "--fail-fast=false")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)

	var purchase sink.Call
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &purchase))
	assert.Equal(t, sink.MethodTrackAction, purchase.Method)
	assert.Equal(t, "purchase", purchase.Name)
	assert.Equal(t, "games;p1;2;10.0", purchase.Data.StringMap()["products"])
	assert.Equal(t, "anon-1", purchase.StreamKey)
}

func TestTranslate_ReportsFailures(t *testing.T) {
	input := `{"type":"track","event":"Video Playback Paused","anonymousId":"a"}
{"type":"flush"}`
	stdout, stderr, err := run(t, input, "translate", "-o", "jsonl", "--fail-fast=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 event(s) failed")
	assert.Contains(t, stderr, "event 1")
	assert.Contains(t, stdout, "flushQueue")
}

func TestTranslate_FailFast(t *testing.T) {
	input := `{"type":"track","event":"Video Playback Paused"}
{"type":"flush"}`
	stdout, _, err := run(t, input, "translate", "-o", "jsonl", "--fail-fast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 1")
	assert.Empty(t, stdout)
}

func TestTranslate_FromFileAsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"screen","name":"Home","anonymousId":"a","properties":{"tab":"feed"}}`), 0o644))

	stdout, _, err := run(t, "", "translate", path, "-o", "table", "--fail-fast=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "METHOD")
	assert.Contains(t, stdout, "trackState")
	assert.Contains(t, stdout, "tab=feed")
}

func TestTranslate_EventTimeDrivesPlayhead(t *testing.T) {
	input := `{"type":"track","event":"Video Playback Started","anonymousId":"a","timestamp":"2026-01-01T00:00:00Z"}
{"type":"track","event":"Video Playback Paused","anonymousId":"a","timestamp":"2026-01-01T00:00:42Z"}`
	stdout, _, err := run(t, input, "translate", "-o", "jsonl", "--event-time", "--fail-fast=false")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	var pause sink.Call
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &pause))
	assert.Equal(t, sink.MethodPause, pause.Method)
	assert.Equal(t, "2026-01-01T00:00:42Z", pause.Time.UTC().Format("2006-01-02T15:04:05Z07:00"))
}

func TestSeed_PipesIntoTranslate(t *testing.T) {
	events, _, err := run(t, "", "seed", "--viewers", "1", "--shoppers", "1", "--seed", "5", "--start", "2026-01-01T00:00:00Z", "--publish=false")
	require.NoError(t, err)
	assert.Contains(t, events, "Video Playback Started")
	assert.Contains(t, events, "Order Completed")

	stdout, _, err := run(t, events, "translate", "-o", "jsonl", "--fail-fast")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"method":"trackSessionStart"`)
	assert.Contains(t, stdout, `"method":"trackSessionEnd"`)
	assert.Contains(t, stdout, `"name":"purchase"`)
}

func TestSeed_InvalidStart(t *testing.T) {
	_, _, err := run(t, "", "seed", "--start", "yesterday", "--viewers", "1", "--shoppers", "0", "--publish=false")
	assert.Error(t, err)
	seedStart = ""
}

func TestConfig_InitShowValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mb", "config.yaml")

	stdout, _, err := run(t, "", "config", "init", path, "--force=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote")
	assert.FileExists(t, path)

	_, _, err = run(t, "", "config", "init", path, "--force=false")
	assert.Error(t, err, "refuses to overwrite")

	stdout, _, err = run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "product_identifier: id")

	stdout, _, err = run(t, "", "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration is valid")
}

func TestConfig_ValidateRejectsBadTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("translation:\n  context_values:\n    - field: \"a..b\"\n      variable: v\n"), 0o644))

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"--config", path, "config", "validate"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context_values[0]")
}

func TestDLQ_ListReplayPurge(t *testing.T) {
	dir := t.TempDir()
	q, err := dlq.NewQueue(dir, logging.Discard())
	require.NoError(t, err)
	ctx := logging.WithStreamKey(context.Background(), "anon-9")
	require.NoError(t, q.Write(ctx, "mediabridge.events.inbound",
		[]byte(`{"type":"track","event":"Product Viewed","anonymousId":"anon-9","properties":{"id":"sku-1"}}`),
		errors.New("backend down"), dlq.ReasonTranslate))

	out, _, err := run(t, "", "dlq", "list", "--path", dir, "-o", "table", "--payloads=false")
	require.NoError(t, err)
	assert.Contains(t, out, "anon-9")
	assert.Contains(t, out, "backend down")

	payloads, _, err := run(t, "", "dlq", "list", "--path", dir, "--payloads")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(payloads, "\n"))

	replayed, _, err := run(t, payloads, "translate", "-o", "jsonl", "--fail-fast")
	require.NoError(t, err)
	assert.Contains(t, replayed, "prodView")

	out, _, err = run(t, "", "dlq", "purge", "--path", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Purged 1 entries")

	out, _, err = run(t, "", "dlq", "stats", "--path", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "0 pending")
}
