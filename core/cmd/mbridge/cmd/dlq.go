package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/common/output"
	"github.com/telhawk-systems/mediabridge/core/internal/dlq"
)

var (
	dlqPath     string
	dlqLimit    int
	dlqOutput   string
	dlqPayloads bool
)

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Inspect dead-lettered inbound events",
	Long: `Inspect events the service could not decode or translate.

Failed payloads can be replayed through the translator:
  mbridge dlq list --payloads | mbridge translate`,
}

var dlqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dead-lettered events, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openDLQ(cmd)
		if err != nil {
			return err
		}
		events, err := q.List(dlqLimit)
		if err != nil {
			return err
		}
		if dlqPayloads {
			return writePayloads(cmd.OutOrStdout(), events)
		}
		format, err := output.ParseFormat(dlqOutput)
		if err != nil {
			return err
		}
		return writeFailed(cmd.OutOrStdout(), format, events)
	},
}

var dlqStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pending entry count",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openDLQ(cmd)
		if err != nil {
			return err
		}
		stats, err := q.Stats()
		if err != nil {
			return err
		}
		output.Info(cmd.OutOrStdout(), "%d pending in %s", stats.Pending, stats.Path)
		return nil
	},
}

var dlqDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openDLQ(cmd)
		if err != nil {
			return err
		}
		if err := q.Delete(args[0]); err != nil {
			return err
		}
		output.Success(cmd.OutOrStdout(), "Deleted %s", args[0])
		return nil
	},
}

var dlqPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openDLQ(cmd)
		if err != nil {
			return err
		}
		n, err := q.Purge()
		if err != nil {
			return err
		}
		output.Success(cmd.OutOrStdout(), "Purged %d entries", n)
		return nil
	},
}

func init() {
	dlqCmd.PersistentFlags().StringVar(&dlqPath, "path", "", "dead-letter directory (default: dlq.path)")
	dlqListCmd.Flags().IntVar(&dlqLimit, "limit", 0, "maximum entries to list (0 for all)")
	dlqListCmd.Flags().StringVarP(&dlqOutput, "output", "o", "table", "output format: json, jsonl, yaml, table")
	dlqListCmd.Flags().BoolVar(&dlqPayloads, "payloads", false, "print only the raw payloads, one per line")

	dlqCmd.AddCommand(dlqListCmd, dlqStatsCmd, dlqDeleteCmd, dlqPurgeCmd)
	rootCmd.AddCommand(dlqCmd)
}

func openDLQ(cmd *cobra.Command) (*dlq.Queue, error) {
	path := dlqPath
	if path == "" {
		path = cfg.DLQ.Path
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Logging.Level), "text")
	return dlq.NewQueue(path, logger)
}

func writePayloads(w io.Writer, events []dlq.FailedEvent) error {
	for _, ev := range events {
		if _, err := fmt.Fprintln(w, strings.TrimSpace(ev.Payload)); err != nil {
			return err
		}
	}
	return nil
}

func writeFailed(w io.Writer, format output.Format, events []dlq.FailedEvent) error {
	switch format {
	case output.FormatJSON:
		return output.JSON(w, events)
	case output.FormatJSONL:
		return output.JSONLines(w, events)
	case output.FormatYAML:
		return output.YAML(w, events)
	}

	table := output.NewTable("ID", "TIME", "STREAM", "REASON", "ERROR")
	for _, ev := range events {
		table.AddRow(ev.ID, ev.Timestamp.Format("2006-01-02T15:04:05Z"), ev.StreamKey, ev.Reason, ev.Error)
	}
	table.Render(w)
	return nil
}
