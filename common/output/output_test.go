package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessages(t *testing.T) {
	tests := []struct {
		name   string
		write  func(buf *bytes.Buffer)
		symbol string
		text   string
	}{
		{name: "success", write: func(b *bytes.Buffer) { Success(b, "Created %d items", 5) }, symbol: "✓", text: "Created 5 items"},
		{name: "error", write: func(b *bytes.Buffer) { Error(b, "Failed on port %d", 8080) }, symbol: "✗", text: "Failed on port 8080"},
		{name: "warn", write: func(b *bytes.Buffer) { Warn(b, "slow") }, symbol: "⚠", text: "slow"},
		{name: "info", write: func(b *bytes.Buffer) { Info(b, "hello %s", "there") }, text: "hello there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.write(&buf)
			assert.Contains(t, buf.String(), tt.symbol)
			assert.Contains(t, buf.String(), tt.text)
		})
	}
}

func TestNoColor(t *testing.T) {
	NoColor = true
	defer func() { NoColor = false }()

	var buf bytes.Buffer
	Success(&buf, "done")
	assert.Equal(t, "✓ done\n", buf.String())
}

func TestColorEscapes(t *testing.T) {
	assert.Equal(t, "\033[31;1mx\033[0m", NewColor(FgRed, Bold).Sprint("x"))
	assert.Equal(t, "x", NewColor().Sprint("x"))
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "JSONL", "yaml", "table"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestJSONAndLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, map[string]int{"a": 1}))
	assert.Contains(t, buf.String(), "  \"a\": 1")

	buf.Reset()
	require.NoError(t, JSONLines(&buf, []map[string]int{{"a": 1}, {"b": 2}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var first map[string]int
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, 1, first["a"])
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, map[string][]string{"calls": {"trackPlay"}}))
	assert.Contains(t, buf.String(), "calls:")
	assert.Contains(t, buf.String(), "- trackPlay")
}

func TestTable(t *testing.T) {
	NoColor = true
	defer func() { NoColor = false }()

	table := NewTable("METHOD", "NAME")
	table.AddRow("trackAction", "purchase")
	table.AddRow("trackPlay", "")

	var buf bytes.Buffer
	table.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "METHOD       NAME      ", lines[0])
	assert.Equal(t, "-----------  --------  ", lines[1])
	assert.Equal(t, "trackAction  purchase  ", lines[2])
}
