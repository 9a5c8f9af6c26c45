package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/common/output"
	"github.com/telhawk-systems/mediabridge/core/internal/service"
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

var (
	translateOutput    string
	translateFailFast  bool
	translateEventTime bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [file|-]",
	Short: "Translate a file of events and print the backend calls",
	Long: `Read JSON events (one per line, or concatenated) from a file or stdin,
run them through the translation core in order and print the calls the
backend would receive.

Examples:
  mbridge seed --viewers 1 | mbridge translate
  mbridge translate events.jsonl --output table`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranslate,
}

func init() {
	translateCmd.Flags().StringVarP(&translateOutput, "output", "o", "jsonl", "output format: json, jsonl, yaml, table")
	translateCmd.Flags().BoolVar(&translateFailFast, "fail-fast", false, "stop at the first event that fails to translate")
	translateCmd.Flags().BoolVar(&translateEventTime, "event-time", true, "advance video playheads by event timestamps instead of the wall clock")
	rootCmd.AddCommand(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(translateOutput)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Logging.Level), "text")
	clock := &replayClock{}
	rec := sink.NewRecorder().WithClock(clock.Now)
	processor, err := service.NewFromConfig(cfg, rec, clock, logger)
	if err != nil {
		return err
	}

	failed, err := translateStream(cmd, in, processor, clock)
	if err != nil {
		return err
	}

	if err := writeCalls(cmd.OutOrStdout(), format, rec.Calls()); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d event(s) failed to translate", failed)
	}
	return nil
}

// translateStream processes every event in r and returns how many failed.
func translateStream(cmd *cobra.Command, r io.Reader, p *service.Processor, clock *replayClock) (int, error) {
	dec := json.NewDecoder(r)
	failed := 0
	for n := 1; ; n++ {
		var ev event.Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return failed, nil
			}
			return failed, fmt.Errorf("event %d: %w", n, err)
		}
		if translateEventTime {
			clock.Set(ev.Timestamp)
		}
		if err := p.Process(cmd.Context(), &ev); err != nil {
			if translateFailFast {
				return failed, fmt.Errorf("event %d: %w", n, err)
			}
			failed++
			output.Warn(cmd.ErrOrStderr(), "event %d: %v", n, err)
		}
	}
}

// replayClock reports the latest event timestamp seen, or the wall clock
// before any timestamped event.
type replayClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *replayClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		return time.Now().UTC()
	}
	return c.now
}

// Set moves the clock to t. Zero and backwards timestamps are ignored.
func (c *replayClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.IsZero() && t.After(c.now) {
		c.now = t
	}
}

func writeCalls(w io.Writer, format output.Format, calls []sink.Call) error {
	switch format {
	case output.FormatJSON:
		return output.JSON(w, calls)
	case output.FormatYAML:
		return output.YAML(w, calls)
	case output.FormatTable:
		table := output.NewTable("STREAM", "METHOD", "NAME", "OBJECT", "DATA")
		for _, c := range calls {
			name := c.Name
			switch {
			case c.Method == sink.MethodEvent:
				name = c.Event.String()
			case c.UserID != nil:
				name = *c.UserID
			}
			table.AddRow(c.StreamKey, string(c.Method), name, sink.DescriptorKind(c.Object), formatData(c))
		}
		table.Render(w)
		return nil
	default:
		return output.JSONLines(w, calls)
	}
}

func formatData(c sink.Call) string {
	if c.Data == nil {
		return ""
	}
	m := c.Data.StringMap()
	parts := make([]string, 0, len(m))
	for _, k := range c.Data.Keys() {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, " ")
}
